package report

import "strings"

// lineBuffer collects written text and splits it into lines.
type lineBuffer struct {
	sb strings.Builder
}

func (b *lineBuffer) Write(p []byte) (int, error) {
	return b.sb.Write(p)
}

func (b *lineBuffer) lines() []string {
	s := strings.TrimRight(b.sb.String(), "\n")
	if s == "" {
		return nil
	}
	out := strings.Split(s, "\n")
	for i := range out {
		out[i] = strings.TrimRight(out[i], " ")
	}
	return out
}
