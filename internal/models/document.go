package models

import "fmt"

// DocKind classifies a reference document. The set is fixed: every
// consumer switches over it exhaustively.
type DocKind string

const (
	KindGlobalFunction    DocKind = "global_function"
	KindGlobalProcedure   DocKind = "global_procedure"
	KindGlobalEvent       DocKind = "global_event"
	KindObjectFunction    DocKind = "object_function"
	KindObjectProcedure   DocKind = "object_procedure"
	KindObjectProperty    DocKind = "object_property"
	KindObjectEvent       DocKind = "object_event"
	KindObjectConstructor DocKind = "object_constructor"
	KindObjectContainer   DocKind = "object"
)

// Parameter describes one formal parameter of a function or method.
// Order inside ReferenceDocument.Parameters is call order.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ObjectMember is one entry of an object container's method/property/event
// list: a localized name, an optional alternate-language name and a link to
// the member's own reference page inside the archive.
type ObjectMember struct {
	Name   string `json:"name"`
	NameEn string `json:"name_en"`
	Href   string `json:"href"`
}

// ReferenceDocument is one extracted unit of scripting-language reference:
// a function, procedure, property, event, constructor or object descriptor.
type ReferenceDocument struct {
	ID          string      `json:"id"`
	Kind        DocKind     `json:"type"`
	Name        string      `json:"name"`
	Object      string      `json:"object,omitempty"`
	SyntaxRu    string      `json:"syntax_ru"`
	SyntaxEn    string      `json:"syntax_en"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	ReturnType  string      `json:"return_type,omitempty"`
	Usage       string      `json:"usage,omitempty"`
	VersionFrom string      `json:"version_from,omitempty"`
	Examples    []string    `json:"examples"`
	SourceFile  string      `json:"source_file"`
	FullPath    string      `json:"full_path"`

	// Populated for KindObjectContainer only.
	Methods    []ObjectMember `json:"methods,omitempty"`
	Properties []ObjectMember `json:"properties,omitempty"`
	Events     []ObjectMember `json:"events,omitempty"`
}

// Finalize derives FullPath and ID from the name, owning object and kind.
// FullPath plus Kind is the document's natural unique key.
func (d *ReferenceDocument) Finalize() {
	if d.Object != "" {
		d.FullPath = fmt.Sprintf("%s.%s", d.Object, d.Name)
		d.ID = fmt.Sprintf("%s_%s_%s", d.Object, d.Name, d.Kind)
	} else {
		d.FullPath = d.Name
		d.ID = fmt.Sprintf("%s_%s", d.Name, d.Kind)
	}
}
