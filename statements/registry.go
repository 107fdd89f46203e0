package statements

import (
	"fmt"
	"sort"
)

// TypeInfo describes a registered relation type tag: how to construct an
// empty statement of the type and where the tag sits in the type
// hierarchy. Parent is the tag of the more general type, or empty for a
// root tag.
type TypeInfo struct {
	Tag       string
	Parent    string
	Symmetric bool
	New       func() Statement
}

var registry = map[string]TypeInfo{}

// Register adds a relation type tag. It panics on a duplicate tag or on a
// parent that has not been registered first; registration happens at init
// time so both are programming errors.
func Register(info TypeInfo) {
	if _, dup := registry[info.Tag]; dup {
		panic(fmt.Sprintf("statements: duplicate type tag %q", info.Tag))
	}
	if info.Parent != "" {
		if _, ok := registry[info.Parent]; !ok {
			panic(fmt.Sprintf("statements: tag %q registered before its parent %q", info.Tag, info.Parent))
		}
	}
	registry[info.Tag] = info
}

// Lookup returns the registration for a tag.
func Lookup(tag string) (TypeInfo, bool) {
	info, ok := registry[tag]
	return info, ok
}

// RegisteredTags returns all known tags in sorted order.
func RegisteredTags() []string {
	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// TypeCompatible reports whether a statement of type tag can refine one of
// type general: the tags are equal, or general is an ancestor of tag in
// the registered hierarchy.
func TypeCompatible(tag, general string) bool {
	for tag != "" {
		if tag == general {
			return true
		}
		info, ok := registry[tag]
		if !ok {
			return false
		}
		tag = info.Parent
	}
	return false
}

// modTypes are the recognized post-translational modification subtypes.
// Each yields a forward tag (the subtype name), a reverse tag ("de" +
// name) and a self-modification tag ("auto" + name).
var modTypes = []string{
	"phosphorylation",
	"ubiquitination",
	"sumoylation",
	"acetylation",
	"methylation",
	"glycosylation",
	"hydroxylation",
	"ribosylation",
	"farnesylation",
	"palmitoylation",
}

// ModificationTypes returns the recognized modification subtype names.
func ModificationTypes() []string {
	return append([]string(nil), modTypes...)
}

func newModification(mod string, remove bool) func() Statement {
	return func() Statement { return &Modification{Mod: mod, Remove: remove} }
}

func newSelfModification(mod string) func() Statement {
	return func() Statement { return &SelfModification{Mod: mod} }
}

func init() {
	Register(TypeInfo{Tag: "modification", New: newModification("", false)})
	Register(TypeInfo{Tag: "demodification", New: newModification("", true)})
	for _, mod := range modTypes {
		Register(TypeInfo{Tag: mod, Parent: "modification", New: newModification(mod, false)})
		Register(TypeInfo{Tag: "de" + mod, Parent: "demodification", New: newModification(mod, true)})
	}

	Register(TypeInfo{Tag: "selfmodification", New: newSelfModification("")})
	for _, mod := range modTypes {
		Register(TypeInfo{Tag: "auto" + mod, Parent: "selfmodification", New: newSelfModification(mod)})
	}

	Register(TypeInfo{Tag: "activation", New: func() Statement { return &Regulation{IsActivation: true} }})
	Register(TypeInfo{Tag: "inhibition", New: func() Statement { return &Regulation{IsActivation: false} }})
	Register(TypeInfo{Tag: "increaseamount", New: func() Statement { return &RegulateAmount{IsIncrease: true} }})
	Register(TypeInfo{Tag: "decreaseamount", New: func() Statement { return &RegulateAmount{IsIncrease: false} }})
	Register(TypeInfo{Tag: "influence", New: func() Statement { return &Influence{} }})
	Register(TypeInfo{Tag: "complex", Symmetric: true, New: func() Statement { return &Complex{} }})
	Register(TypeInfo{Tag: "translocation", New: func() Statement { return &Translocation{} }})
	Register(TypeInfo{Tag: "activeform", New: func() Statement { return &ActiveForm{} }})
}
