// Package config reads the optional HCL project file that sits next to the
// templates. Every attribute is optional; values left out fall back to the
// command line or to built-in defaults.
package config
