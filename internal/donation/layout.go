package donation

import (
	"net/http"
	"strconv"
)

type Layout string

const (
	LayoutCards     Layout = "cards"
	LayoutAccordion Layout = "accordion"
)

// ResolveLayout picks cards at or above the breakpoint and the accordion
// below it. An unknown width (0) means cards.
func ResolveLayout(width, breakpoint int) Layout {
	if width > 0 && width < breakpoint {
		return LayoutAccordion
	}
	return LayoutCards
}

// LayoutFromRequest reads the viewport width from the Sec-CH-Viewport-Width
// client hint or a vw query/form value, falling back to Sec-CH-UA-Mobile.
func LayoutFromRequest(r *http.Request, breakpoint int) Layout {
	for _, v := range []string{r.Header.Get("Sec-CH-Viewport-Width"), r.FormValue("vw")} {
		if width, err := strconv.Atoi(v); err == nil && width > 0 {
			return ResolveLayout(width, breakpoint)
		}
	}
	if r.Header.Get("Sec-CH-UA-Mobile") == "?1" {
		return LayoutAccordion
	}
	return LayoutCards
}
