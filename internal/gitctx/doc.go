// Package gitctx reads values from git configuration.
//
// [ConfigValue] shells out to `git config --get` through a [Runner], which
// tests replace with a fake. [ReadConfigFile] reads the same keys straight
// from the repository and global config files with go-git, for machines where
// the git executable is not installed.
package gitctx
