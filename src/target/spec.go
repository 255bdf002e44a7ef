package target

import (
	"strings"

	"github.com/tcbuild/tcbuild/src/core"
)

// An Action is what a synthesised target does.
type Action string

// The actions that targets can be synthesised for.
const (
	CheckAction   Action = "check"
	CreateAction  Action = "create"
	PublishAction Action = "publish"
)

// The explicit targets that synthesised ones resolve to.
const (
	checkGroupTarget     = "check_group"
	checkTypeTarget      = "check_type"
	createPackageTarget  = "create_package"
	publishPackageTarget = "publish_package"
)

// A TargetSpec describes a target that isn't registered explicitly but is derived from its name,
// e.g. check_web_system runs the system tests of the web module group.
type TargetSpec struct {
	Action Action
	// Group is the module group to check, if any.
	Group string
	// Type is the test type to check, if any.
	Type core.TestType
	// Name is the kit to create or publish.
	Name string
}

// ParseSpec parses a target name of one of these forms:
//
//	check_<type>
//	check_<group>
//	check_<group>_<type>
//	create_<kit>
//	publish_<kit>
//
// It only looks at the shape of the name; whether the group or kit exists is up to the target
// it resolves to. The second return value is false if the name doesn't match any of them.
func ParseSpec(name string) (TargetSpec, bool) {
	if rest, ok := trimPrefix(name, "check_"); ok {
		if core.IsTestType(rest) {
			return TargetSpec{Action: CheckAction, Type: core.TestType(rest)}, true
		}
		for _, t := range core.TestTypes {
			if group, ok := trimSuffix(rest, "_"+string(t)); ok {
				return TargetSpec{Action: CheckAction, Group: group, Type: t}, true
			}
		}
		return TargetSpec{Action: CheckAction, Group: rest}, true
	} else if rest, ok := trimPrefix(name, "create_"); ok {
		return TargetSpec{Action: CreateAction, Name: rest}, true
	} else if rest, ok := trimPrefix(name, "publish_"); ok {
		return TargetSpec{Action: PublishAction, Name: rest}, true
	}
	return TargetSpec{}, false
}

// trimPrefix is like strings.TrimPrefix but also reports whether anything non-empty is left.
func trimPrefix(s, prefix string) (string, bool) {
	if rest := strings.TrimPrefix(s, prefix); rest != s && rest != "" {
		return rest, true
	}
	return "", false
}

func trimSuffix(s, suffix string) (string, bool) {
	if rest := strings.TrimSuffix(s, suffix); rest != s && rest != "" {
		return rest, true
	}
	return "", false
}

// Resolve returns the explicit target this spec is equivalent to, and the arguments to invoke it with.
func (spec TargetSpec) Resolve() (string, []string) {
	switch spec.Action {
	case CreateAction:
		return createPackageTarget, []string{spec.Name}
	case PublishAction:
		return publishPackageTarget, []string{spec.Name}
	}
	if spec.Group == "" {
		return checkTypeTarget, []string{string(spec.Type)}
	} else if spec.Type == "" {
		return checkGroupTarget, []string{spec.Group}
	}
	return checkGroupTarget, []string{spec.Group, string(spec.Type)}
}
