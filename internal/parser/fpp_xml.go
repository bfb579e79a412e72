package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/fpp-modeler/backend/internal/models"
)

// CompilerXML is the raw structure of the FPP compiler's XML output.
// The root element name is not checked.
type CompilerXML struct {
	XMLName    xml.Name
	Namespaces []NamespaceElement `xml:"namespace"`
}

type NamespaceElement struct {
	Name       string             `xml:"name,attr"`
	PortTypes  []PortTypeElement  `xml:"port_type>porttype"`
	Components []ComponentElement `xml:"component>component"`
	Systems    []SystemElement    `xml:"system"`
}

type PortTypeElement struct {
	Name string       `xml:"name,attr"`
	Args []ArgElement `xml:"arg"`
}

type ArgElement struct {
	Name   string `xml:"name,attr"`
	Type   string `xml:"type,attr"`
	PassBy string `xml:"pass_by,attr"`
}

type ComponentElement struct {
	Name  string        `xml:"name,attr"`
	Kind  string        `xml:"kind,attr"`
	Attrs []xml.Attr    `xml:",any,attr"`
	Ports []PortElement `xml:"port"`
}

type PortElement struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

type SystemElement struct {
	Instances  []InstanceElement `xml:"instance"`
	Topologies []TopologyElement `xml:"topology"`
}

type InstanceElement struct {
	Attrs []xml.Attr `xml:",any,attr"`
}

type TopologyElement struct {
	Name        string              `xml:"name,attr"`
	Connections []ConnectionElement `xml:"connection"`
}

type ConnectionElement struct {
	Source EndpointElement  `xml:"source"`
	Target *EndpointElement `xml:"target"`
}

type EndpointElement struct {
	Instance string `xml:"instance,attr"`
	Port     string `xml:"port,attr"`
}

// ParseCompilerXMLFile parses compiler XML output from a file.
func ParseCompilerXMLFile(filePath string) (*CompilerXML, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseCompilerXML(file)
}

// ParseCompilerXML parses compiler XML output. Output with no namespace
// elements, including empty output, fails with models.ErrEmptyModelData.
func ParseCompilerXML(r io.Reader) (*CompilerXML, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, models.ErrEmptyModelData
	}

	var raw CompilerXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing compiler XML: %w", err)
	}
	if len(raw.Namespaces) == 0 {
		return nil, models.ErrEmptyModelData
	}

	return &raw, nil
}

// attrMap returns the attributes as an ordered bag, without filtering.
// Keys and values go through strs.
func attrMap(strs *StringIntern, attrs []xml.Attr) models.Props {
	props := make(models.Props, 0, len(attrs))
	for _, a := range attrs {
		props.Set(strs.Intern(a.Name.Local), strs.Intern(a.Value))
	}
	return props
}
