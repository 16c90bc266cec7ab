package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If none of the provided errors is a non nil value, nil is returned. If
// exactly one error is not nil, that error is returned as it is.
func Append(errs ...error) error {
	var all multiErr
	for _, err := range errs {
		if isNilErr(err) {
			continue
		}
		// Flatten groups, so that the resulting error is a flat list.
		if m, ok := err.(multiErr); ok {
			all = append(all, m...)
			continue
		}
		all = append(all, err)
	}
	switch len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	default:
		return all
	}
}

// multiErr is a group of errors. Each of them is tested when using Is.
type multiErr []error

func (m multiErr) Error() string {
	points := make([]string, len(m))
	for i, err := range m {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf(
		"%d errors occurred:\n\t%s\n",
		len(m), strings.Join(points, "\n\t"))
}

// Unpack returns all clubbed errors.
func (m multiErr) Unpack() []error {
	return m
}

// Code returns the code of the first error in the group. This is consistent
// with the fail fast approach where the first failure is the most relevant.
func (m multiErr) Code() uint32 {
	if len(m) == 0 {
		return successCode
	}
	return code(m[0])
}

var _ unpacker = multiErr(nil)
