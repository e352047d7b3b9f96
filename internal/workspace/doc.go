// Package workspace prepares a bot working directory before first start.
//
// Bootstrap is idempotent: it creates the fixed directory list, writes the
// migration-tool config when it is missing, and copies the environment
// template to the active environment file when that file is missing. Existing
// files are never rewritten. The force flag only re-asserts directories
// (recreating them if needed and re-applying their mode).
//
// Files are created with O_EXCL so two concurrent runs settle on one writer;
// the other run records the file as already present.
package workspace
