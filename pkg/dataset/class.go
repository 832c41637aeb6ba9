package dataset

import (
	"fmt"
	"path/filepath"
)

// Class is a label together with its folder and filename prefix
type Class struct {
	Label  string
	Prefix string
}

var (
	BMR  = Class{Label: "BMR", Prefix: "BMR_WEB_"}
	RASH = Class{Label: "RASH", Prefix: "RASH_WEB_"}
)

// Classes lists the labels in collection order
var Classes = []Class{BMR, RASH}

// Dir returns the class folder under root
func (c Class) Dir(root string) string {
	return filepath.Join(root, c.Label)
}

// FileName returns the file name for suffix n
func (c Class) FileName(n int) string {
	return fmt.Sprintf("%s%d.jpg", c.Prefix, n)
}
