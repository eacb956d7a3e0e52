//go:build windows

package dosbuf

// TextModeDefault reports whether the platform distinguishes text from
// binary files. Windows files commonly use CRLF, so normalization is on.
const TextModeDefault = true
