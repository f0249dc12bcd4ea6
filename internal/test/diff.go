package test

import (
	"strings"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorDim   = "\033[37m"
)

func Diff(old string, new string, color bool) string {
	return strings.Join(diffRec(nil, strings.Split(old, "\n"), strings.Split(new, "\n"), color), "\n")
}

// This is a simple recursive line-by-line diff implementation
func diffRec(result []string, old []string, new []string, color bool) []string {
	o, n, common := lcSubstr(old, new)

	if common == 0 {
		// Everything changed
		for _, line := range old {
			result = append(result, decorate("-", line, colorRed, color))
		}
		for _, line := range new {
			result = append(result, decorate("+", line, colorGreen, color))
		}
		return result
	}

	// Something in the middle stayed the same
	result = diffRec(result, old[:o], new[:n], color)
	for _, line := range old[o : o+common] {
		result = append(result, decorate(" ", line, colorDim, color))
	}
	return diffRec(result, old[o+common:], new[n+common:], color)
}

func decorate(marker string, line string, escape string, color bool) string {
	if color {
		return escape + marker + line + colorReset
	}
	return marker + line
}

// Longest common run of lines, returned as the offsets into both inputs
// and the length of the run
func lcSubstr(s []string, t []string) (int, int, int) {
	prev := make([]int, len(t))
	next := make([]int, len(t))
	longest := 0
	endS := 0
	endT := 0

	for i := range s {
		for j := range t {
			if s[i] != t[j] {
				next[j] = 0
				continue
			}
			if j == 0 {
				next[j] = 1
			} else {
				next[j] = prev[j-1] + 1
			}
			if next[j] > longest {
				longest = next[j]
				endS = i + 1
				endT = j + 1
			}
		}
		prev, next = next, prev
	}

	return endS - longest, endT - longest, longest
}
