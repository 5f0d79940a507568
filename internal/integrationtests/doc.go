// Package integrationtests drives the whole application against temporary
// source directories.
package integrationtests
