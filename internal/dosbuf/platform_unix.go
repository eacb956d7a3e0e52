//go:build !windows

package dosbuf

// TextModeDefault reports whether the platform distinguishes text from
// binary files. Unix does not, so normalization is opt-in.
const TextModeDefault = false
