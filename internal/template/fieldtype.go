package template

// fieldTypeEntry is what the registry supplies for a symbolic field type:
// the bubble palette and the axis choices advance along.
type fieldTypeEntry struct {
	BubbleValues []string
	Direction    Direction
}

// fieldTypes is the closed set of symbolic question shapes a block config
// may name via its fieldType key. This is the only polymorphism over
// question shape the template model has.
var fieldTypes = map[string]fieldTypeEntry{
	"QTYPE_INT": {
		BubbleValues: []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"},
		Direction:    Vertical,
	},
	"QTYPE_INT_FROM_1": {
		BubbleValues: []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "0"},
		Direction:    Vertical,
	},
	"QTYPE_MCQ4": {
		BubbleValues: []string{"A", "B", "C", "D"},
		Direction:    Horizontal,
	},
	"QTYPE_MCQ5": {
		BubbleValues: []string{"A", "B", "C", "D", "E"},
		Direction:    Horizontal,
	},
}

// lookupFieldType returns the registry entry for a symbolic field type name.
func lookupFieldType(name string) (fieldTypeEntry, bool) {
	e, ok := fieldTypes[name]
	return e, ok
}
