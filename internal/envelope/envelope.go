// Copyright 2013 The imageproxy authors.
// SPDX-License-Identifier: Apache-2.0

// Package envelope encodes giraffe objects for stores that only hold bytes.
package envelope

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/giraffeimg/giraffe"
)

// entry is the stored form of an object.  Public is not kept since byte
// stores have no access control.
type entry struct {
	Data        []byte
	ContentType string
}

// Marshal encodes obj.
func Marshal(obj *giraffe.Object) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry{Data: obj.Data, ContentType: obj.ContentType}); err != nil {
		return nil, fmt.Errorf("envelope: encoding object: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes an object previously encoded with Marshal.
func Unmarshal(b []byte) (*giraffe.Object, error) {
	var e entry
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&e); err != nil {
		return nil, fmt.Errorf("envelope: decoding object: %w", err)
	}
	return &giraffe.Object{Data: e.Data, ContentType: e.ContentType}, nil
}
