package mzidentml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/524D/mzidwriter/cv"
)

// xmlFile is a thin scoped-element layer over encoding/xml's token
// encoder: open an element, run a body, close it again, so entity
// components can nest without tracking tag state themselves.
type xmlFile struct {
	enc *xml.Encoder
}

func newXMLFile(w io.Writer) *xmlFile {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return &xmlFile{enc: enc}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func attrInt(name string, value int) xml.Attr {
	return attr(name, strconv.Itoa(value))
}

func attrFloat(name string, value float64) xml.Attr {
	return attr(name, strconv.FormatFloat(value, 'g', -1, 64))
}

func attrBool(name string, value bool) xml.Attr {
	return attr(name, strconv.FormatBool(value))
}

func (x *xmlFile) open(name string, attrs ...xml.Attr) error {
	return x.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (x *xmlFile) close(name string) error {
	return x.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

// element writes <name attrs...>, runs body, and writes the end tag
// even if body fails, so the token stream stays balanced.
func (x *xmlFile) element(name string, attrs []xml.Attr, body func() error) error {
	if err := x.open(name, attrs...); err != nil {
		return err
	}
	var bodyErr error
	if body != nil {
		bodyErr = body()
	}
	if err := x.close(name); err != nil && bodyErr == nil {
		bodyErr = err
	}
	return bodyErr
}

// empty writes a childless element.
func (x *xmlFile) empty(name string, attrs ...xml.Attr) error {
	return x.element(name, attrs, nil)
}

func (x *xmlFile) chars(s string) error {
	return x.enc.EncodeToken(xml.CharData(s))
}

func (x *xmlFile) flush() error {
	return x.enc.Flush()
}

// param writes a cvParam or userParam element depending on whether p is
// qualified.
func (x *xmlFile) param(p cv.Param) error {
	var attrs []xml.Attr
	name := "userParam"
	if p.Qualified() {
		name = "cvParam"
		attrs = append(attrs, attr("cvRef", p.CVRef), attr("accession", p.Accession))
	}
	attrs = append(attrs, attr("name", p.Name))
	if p.Value != "" {
		attrs = append(attrs, attr("value", p.Value))
	}
	if p.UnitAccession != "" {
		attrs = append(attrs,
			attr("unitCvRef", p.UnitCVRef),
			attr("unitAccession", p.UnitAccession),
			attr("unitName", p.UnitName))
	}
	return x.empty(name, attrs...)
}

// params qualifies and writes a parameter list.
func (x *xmlFile) params(ctx *Context, ps []cv.Param) error {
	for _, p := range ps {
		if err := x.param(ctx.Param(p)); err != nil {
			return fmt.Errorf("mzidentml: writing param %q: %w", p.Name, err)
		}
	}
	return nil
}
