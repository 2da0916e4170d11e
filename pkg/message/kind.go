package message

import "strings"

// Kind identifies a request (and its matching response).
type Kind uint8

const (
	KindInit Kind = iota + 1
	KindSetInput
	KindInputsPermutation
	KindInputVini
	KindAllInputsSet
	KindSetOutput
	KindAllOutputsSet
	KindMlsagDone
	KindSignInput
	KindFinal
)

// String returns the step name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInit:
		return "Init"
	case KindSetInput:
		return "SetInput"
	case KindInputsPermutation:
		return "InputsPermutation"
	case KindInputVini:
		return "InputVini"
	case KindAllInputsSet:
		return "AllInputsSet"
	case KindSetOutput:
		return "SetOutput"
	case KindAllOutputsSet:
		return "AllOutputsSet"
	case KindMlsagDone:
		return "MlsagDone"
	case KindSignInput:
		return "SignInput"
	case KindFinal:
		return "Final"
	default:
		return "Unknown"
	}
}

// IsValid reports whether k is a defined kind.
func (k Kind) IsValid() bool {
	return k >= KindInit && k <= KindFinal
}

// KindSet is a set of request kinds. The empty set means the flow is complete.
type KindSet uint16

// KindSetOf returns the set holding kinds.
func KindSetOf(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// With returns s plus k.
func (s KindSet) With(k Kind) KindSet {
	if !k.IsValid() {
		return s
	}
	return s | 1<<k
}

// Has reports whether k is in s.
func (s KindSet) Has(k Kind) bool {
	return k.IsValid() && s&(1<<k) != 0
}

// IsEmpty reports whether no kind is accepted.
func (s KindSet) IsEmpty() bool {
	return s == 0
}

// Kinds lists the members of s in protocol order.
func (s KindSet) Kinds() []Kind {
	var out []Kind
	for k := KindInit; k <= KindFinal; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// String returns the kinds joined by "|", or "{}" for the empty set.
func (s KindSet) String() string {
	kinds := s.Kinds()
	if len(kinds) == 0 {
		return "{}"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, "|")
}
