package device

import (
	"encoding/xml"
	"strconv"
	"strings"
)

// Integer is an SVD scaled integer. Values are either decimal or hexadecimal
// with a 0x prefix.
type Integer int64

func (i *Integer) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var v string
	if err := d.DecodeElement(&v, &start); err != nil {
		return err
	}
	return i.parse(v)
}

func (i *Integer) UnmarshalXMLAttr(attr xml.Attr) error {
	return i.parse(attr.Value)
}

func (i *Integer) parse(v string) (err error) {
	v = strings.ReplaceAll(strings.TrimSpace(v), "X", "x")

	var value int64
	if strings.HasPrefix(v, "0x") {
		value, err = strconv.ParseInt(strings.TrimPrefix(v, "0x"), 16, 64)
	} else if strings.HasPrefix(v, "#") {
		value, err = strconv.ParseInt(strings.TrimPrefix(v, "#"), 2, 64)
	} else {
		value, err = strconv.ParseInt(v, 10, 64)
	}
	if err != nil {
		return err
	}
	*i = Integer(value)
	return nil
}

// Bool is an SVD boolean, spelled either true/false or 1/0.
type Bool bool

func (b *Bool) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var v string
	if err := d.DecodeElement(&v, &start); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1":
		*b = true
	case "false", "0", "":
		*b = false
	default:
		return &strconv.NumError{Func: "ParseBool", Num: v, Err: strconv.ErrSyntax}
	}
	return nil
}
