package config

// DefaultFileName is looked up in the source directory when no explicit
// configuration path is given.
const DefaultFileName = "ngstatic.hcl"

// File is the decoded project file. Nil pointers mean the attribute was not
// set.
type File struct {
	OutputDir           *string  `hcl:"output_dir,optional"`
	AutoRemoveOutputDir *bool    `hcl:"auto_remove_output_dir,optional"`
	ShowWarnings        *bool    `hcl:"show_warnings,optional"`
	Beautify            *bool    `hcl:"beautify,optional"`
	Workers             *int     `hcl:"workers,optional"`
	Indent              *string  `hcl:"indent,optional"`
	BreakAroundTags     []string `hcl:"break_around_tags,optional"`
}
