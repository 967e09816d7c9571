package arg

import (
	"fmt"

	"github.com/jeromekelleher/coalescent/simerr"
)

func errBadParameter(format string, args ...any) error {
	return simerr.New(simerr.KindBadParameter, fmt.Sprintf(format, args...))
}

func errLinksOverflow(format string, args ...any) error {
	return simerr.New(simerr.KindLinksOverflow, fmt.Sprintf(format, args...))
}

func errPopulationOverflow(format string, args ...any) error {
	return simerr.New(simerr.KindPopulationOverflow, fmt.Sprintf(format, args...))
}
