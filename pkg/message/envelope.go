package message

import (
	"fmt"

	"github.com/backkem/xmrsign/pkg/tlv"
)

// Status reports the outcome of a request.
type Status uint8

const (
	StatusOK Status = iota
	StatusProtocolOrder
	StatusBounds
	StatusAuthentication
	StatusBalance
	StatusPrefixMismatch
	StatusStateMachine
	StatusCryptoAssertion
	StatusBatchPolicy
	StatusUserAbort
	StatusInvalid
	StatusInternal
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusProtocolOrder:
		return "ProtocolOrder"
	case StatusBounds:
		return "Bounds"
	case StatusAuthentication:
		return "Authentication"
	case StatusBalance:
		return "Balance"
	case StatusPrefixMismatch:
		return "PrefixMismatch"
	case StatusStateMachine:
		return "StateMachine"
	case StatusCryptoAssertion:
		return "CryptoAssertion"
	case StatusBatchPolicy:
		return "BatchPolicy"
	case StatusUserAbort:
		return "UserAbort"
	case StatusInvalid:
		return "Invalid"
	case StatusInternal:
		return "Internal"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Reply is the device's answer to one request. Response is nil unless Status
// is StatusOK.
type Reply struct {
	Kind     Kind
	Status   Status
	Message  string
	Accept   KindSet
	Response Response
}

const (
	tagEnvKind = 0
	tagEnvBody = 1

	tagReplyKind    = 0
	tagReplyStatus  = 1
	tagReplyMessage = 2
	tagReplyAccept  = 3
	tagReplyBody    = 4
)

// EncodeRequest wraps a request with its kind.
func EncodeRequest(req Request) ([]byte, error) {
	body, err := req.Encode()
	if err != nil {
		return nil, err
	}
	e := newEncoder()
	e.uint(ctag(tagEnvKind), uint64(req.Kind()))
	e.bytes(ctag(tagEnvBody), body)
	return e.finish()
}

// DecodeRequest parses a request envelope.
func DecodeRequest(data []byte) (Request, error) {
	var (
		kind    Kind
		body    []byte
		hasKind bool
	)
	err := decode(data, func(r *tlv.Reader, tag uint8) error {
		switch tag {
		case tagEnvKind:
			v, err := r.Uint()
			if err != nil {
				return err
			}
			kind, hasKind = Kind(v), v <= 0xff
			return nil
		case tagEnvBody:
			var err error
			body, err = r.Bytes()
			return err
		default:
			return r.Skip()
		}
	})
	if err != nil {
		return nil, err
	}
	if !hasKind || !kind.IsValid() {
		return nil, ErrUnknownKind
	}
	return decodeRequestBody(kind, body)
}

func decodeRequestBody(kind Kind, body []byte) (Request, error) {
	switch kind {
	case KindInit:
		return DecodeInitRequest(body)
	case KindSetInput:
		return DecodeSetInputRequest(body)
	case KindInputsPermutation:
		return DecodeInputsPermutationRequest(body)
	case KindInputVini:
		return DecodeInputViniRequest(body)
	case KindAllInputsSet:
		return &AllInputsSetRequest{}, decodeEmpty(body)
	case KindSetOutput:
		return DecodeSetOutputRequest(body)
	case KindAllOutputsSet:
		return &AllOutputsSetRequest{}, decodeEmpty(body)
	case KindMlsagDone:
		return &MlsagDoneRequest{}, decodeEmpty(body)
	case KindSignInput:
		return DecodeSignInputRequest(body)
	case KindFinal:
		return &FinalRequest{}, decodeEmpty(body)
	}
	return nil, ErrUnknownKind
}

// DecodeResponse parses the body of a response of the given kind.
func DecodeResponse(kind Kind, body []byte) (Response, error) {
	switch kind {
	case KindInit:
		return DecodeInitResponse(body)
	case KindSetInput:
		return DecodeSetInputResponse(body)
	case KindInputsPermutation:
		return &InputsPermutationResponse{}, decodeEmpty(body)
	case KindInputVini:
		return &InputViniResponse{}, decodeEmpty(body)
	case KindAllInputsSet:
		return DecodeAllInputsSetResponse(body)
	case KindSetOutput:
		return DecodeSetOutputResponse(body)
	case KindAllOutputsSet:
		return DecodeAllOutputsSetResponse(body)
	case KindMlsagDone:
		return DecodeMlsagDoneResponse(body)
	case KindSignInput:
		return DecodeSignInputResponse(body)
	case KindFinal:
		return DecodeFinalResponse(body)
	}
	return nil, ErrUnknownKind
}

// EncodeReply serializes a reply.
func EncodeReply(rep *Reply) ([]byte, error) {
	e := newEncoder()
	e.uint(ctag(tagReplyKind), uint64(rep.Kind))
	e.uint(ctag(tagReplyStatus), uint64(rep.Status))
	e.optBytes(ctag(tagReplyMessage), []byte(rep.Message))
	e.uint(ctag(tagReplyAccept), uint64(rep.Accept))
	if rep.Response != nil {
		if rep.Response.Kind() != rep.Kind {
			return nil, ErrKindMismatch
		}
		body, err := rep.Response.Encode()
		if err != nil {
			return nil, err
		}
		e.bytes(ctag(tagReplyBody), body)
	}
	return e.finish()
}

// DecodeReply parses a reply.
func DecodeReply(data []byte) (*Reply, error) {
	rep := &Reply{}
	var body []byte
	err := decode(data, func(r *tlv.Reader, tag uint8) error {
		var (
			v   uint64
			err error
		)
		switch tag {
		case tagReplyKind:
			v, err = r.Uint()
			rep.Kind = Kind(v)
		case tagReplyStatus:
			v, err = r.Uint()
			rep.Status = Status(v)
		case tagReplyMessage:
			var b []byte
			b, err = r.Bytes()
			rep.Message = string(b)
		case tagReplyAccept:
			v, err = r.Uint()
			rep.Accept = KindSet(v)
		case tagReplyBody:
			body, err = r.Bytes()
		default:
			err = r.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	// Kind 0 answers a request the device could not decode.
	if !rep.Kind.IsValid() && (rep.Kind != 0 || rep.Status == StatusOK) {
		return nil, ErrUnknownKind
	}
	if body != nil {
		resp, err := DecodeResponse(rep.Kind, body)
		if err != nil {
			return nil, err
		}
		rep.Response = resp
	}
	return rep, nil
}
