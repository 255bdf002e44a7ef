package core

import "strings"

// A TestType identifies one of the kinds of test suite a module can have.
type TestType string

// The test types we know about. Each is run from the subtree of the same name.
const (
	UnitTests   TestType = "unit"
	SystemTests TestType = "system"
)

// TestTypes lists all the test types, in the order they're run.
var TestTypes = []TestType{UnitTests, SystemTests}

// ParseTestType converts a string into a TestType.
func ParseTestType(s string) (TestType, error) {
	for _, t := range TestTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", lookupError(ErrNoSuchTestType, s, testTypeNames())
}

// IsTestType returns true if the given string names a test type.
func IsTestType(s string) bool {
	_, err := ParseTestType(s)
	return err == nil
}

// Subtree returns the name of the subtree containing tests of this type.
func (t TestType) Subtree() string {
	return "tests." + string(t)
}

// TestTypeForSubtree returns the test type run from the given subtree, if there is one.
func TestTypeForSubtree(subtree string) (TestType, bool) {
	for _, t := range TestTypes {
		if t.Subtree() == subtree {
			return t, true
		}
	}
	return "", false
}

func testTypeNames() []string {
	names := make([]string, len(TestTypes))
	for i, t := range TestTypes {
		names[i] = string(t)
	}
	return names
}

// TestTypeList is a convenience for printing a list of the test types.
func TestTypeList() string {
	return strings.Join(testTypeNames(), ", ")
}
