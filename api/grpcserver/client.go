package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Get(ctx context.Context, key string) (value string, version uint64, err error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Get", wrapperspb.String(key), out); err != nil {
		return "", 0, err
	}
	f := out.GetFields()
	return f["value"].GetStringValue(), uint64(f["version"].GetNumberValue()), nil
}

func (c *Client) Put(ctx context.Context, key, value string) (uint64, error) {
	in, err := structpb.NewStruct(map[string]any{"key": key, "value": value})
	if err != nil {
		return 0, err
	}
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Put", in, out); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *Client) Delete(ctx context.Context, key string) (uint64, error) {
	out := new(wrapperspb.UInt64Value)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Delete", wrapperspb.String(key), out); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}

func (c *Client) Snapshot(ctx context.Context) (version uint64, values map[string]string, err error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/Snapshot", &emptypb.Empty{}, out); err != nil {
		return 0, nil, err
	}
	f := out.GetFields()
	values = map[string]string{}
	for k, v := range f["values"].GetStructValue().GetFields() {
		values[k] = v.GetStringValue()
	}
	return uint64(f["version"].GetNumberValue()), values, nil
}
