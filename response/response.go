// SPDX-License-Identifier: GPL-3.0-or-later

// Package response models SMTP replies as seen by the transport and
// classification layers.
//
// Parsing and encoding replies on the wire belongs to the protocol
// layer; this package only carries the already decoded values.
package response

import (
	"strconv"
	"strings"
)

// Code is a three digit SMTP reply code (e.g., 250, 354, 550).
type Code uint16

// Class is the reply class given by the first digit of a [Code].
type Class int

const (
	// ClassUnknown is the class of codes outside 200-599.
	ClassUnknown Class = iota

	// ClassPositiveCompletion is the 2yz class.
	ClassPositiveCompletion

	// ClassPositiveIntermediate is the 3yz class (e.g., 354 after DATA).
	ClassPositiveIntermediate

	// ClassTransientNegative is the 4yz class.
	ClassTransientNegative

	// ClassPermanentNegative is the 5yz class.
	ClassPermanentNegative
)

// String implements [fmt.Stringer].
func (c Class) String() string {
	switch c {
	case ClassPositiveCompletion:
		return "positive completion"
	case ClassPositiveIntermediate:
		return "positive intermediate"
	case ClassTransientNegative:
		return "transient negative"
	case ClassPermanentNegative:
		return "permanent negative"
	default:
		return "unknown"
	}
}

// Class returns the class of the code.
func (c Code) Class() Class {
	switch c / 100 {
	case 2:
		return ClassPositiveCompletion
	case 3:
		return ClassPositiveIntermediate
	case 4:
		return ClassTransientNegative
	case 5:
		return ClassPermanentNegative
	default:
		return ClassUnknown
	}
}

// IsErroneous returns whether the code signals that the command failed,
// which is the case for the 4yz and 5yz classes.
func (c Code) IsErroneous() bool {
	return c.IsTransient() || c.IsPermanent()
}

// IsTransient returns whether the code belongs to the 4yz class.
func (c Code) IsTransient() bool {
	return c.Class() == ClassTransientNegative
}

// IsPermanent returns whether the code belongs to the 5yz class.
func (c Code) IsPermanent() bool {
	return c.Class() == ClassPermanentNegative
}

// String implements [fmt.Stringer].
func (c Code) String() string {
	return strconv.Itoa(int(c))
}

// GoString implements [fmt.GoStringer] so %#v prints the decimal code.
func (c Code) GoString() string {
	return c.String()
}

// Response is a complete, possibly multiline, SMTP reply.
type Response struct {
	// Code is the reply code.
	Code Code

	// Lines contains the text of each line without the code,
	// the separator, and the trailing CRLF.
	Lines []string
}

// New creates a new [Response].
func New(code Code, lines ...string) Response {
	return Response{Code: code, Lines: lines}
}

// IsErroneous returns whether the reply signals that the command failed.
func (r Response) IsErroneous() bool {
	return r.Code.IsErroneous()
}

// String returns the code followed by the lines joined by " / ".
func (r Response) String() string {
	if len(r.Lines) <= 0 {
		return r.Code.String()
	}
	return r.Code.String() + " " + strings.Join(r.Lines, " / ")
}
