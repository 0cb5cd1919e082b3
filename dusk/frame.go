package dusk

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Gateway frames are protobuf `Struct` messages `{op, d}` sent as binary websocket messages.
// An empty binary message is a ping.

type FrameOp string

const (
	FrameOpAuth  FrameOp = "auth"
	FrameOpEvent FrameOp = "event"
)

const frameOpKey = "op"
const frameDataKey = "d"

func ToFrame(op FrameOp, data any) (*structpb.Struct, error) {
	fields := map[string]any{
		frameOpKey: string(op),
	}
	if data != nil {
		dataJson, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		var dataValue any
		if err := json.Unmarshal(dataJson, &dataValue); err != nil {
			return nil, err
		}
		fields[frameDataKey] = dataValue
	}
	return structpb.NewStruct(fields)
}

func RequireToFrame(op FrameOp, data any) *structpb.Struct {
	frame, err := ToFrame(op, data)
	if err != nil {
		panic(err)
	}
	return frame
}

// decodes the frame data into `data`, when `data` is not nil
func FromFrame(frame *structpb.Struct, data any) (FrameOp, error) {
	opValue, ok := frame.GetFields()[frameOpKey]
	if !ok {
		return "", fmt.Errorf("Frame missing op.")
	}
	op := FrameOp(opValue.GetStringValue())
	if data == nil {
		return op, nil
	}
	dataValue, ok := frame.GetFields()[frameDataKey]
	if !ok {
		return op, fmt.Errorf("Frame %s missing data.", op)
	}
	dataJson, err := dataValue.MarshalJSON()
	if err != nil {
		return op, err
	}
	if err := json.Unmarshal(dataJson, data); err != nil {
		return op, err
	}
	return op, nil
}

func EncodeFrame(op FrameOp, data any) ([]byte, error) {
	frame, err := ToFrame(op, data)
	if err != nil {
		return nil, err
	}
	// the auth echo is compared byte for byte
	return proto.MarshalOptions{Deterministic: true}.Marshal(frame)
}

func DecodeFrame(frameBytes []byte, data any) (FrameOp, error) {
	frame := &structpb.Struct{}
	if err := proto.Unmarshal(frameBytes, frame); err != nil {
		return "", err
	}
	return FromFrame(frame, data)
}
