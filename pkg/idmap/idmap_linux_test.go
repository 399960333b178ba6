package idmap

import (
	"bytes"
	"testing"

	specs "github.com/opencontainers/runtime-spec/specs-go"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		maps []specs.LinuxIDMapping
		want string
	}{
		{
			name: "Empty",
			maps: nil,
			want: "",
		},
		{
			name: "Single",
			maps: []specs.LinuxIDMapping{
				{ContainerID: 0, HostID: 1000, Size: 1},
			},
			want: "0 1000 1\n",
		},
		{
			name: "Range",
			maps: []specs.LinuxIDMapping{
				{ContainerID: 0, HostID: 1000, Size: 1},
				{ContainerID: 1, HostID: 100000, Size: 65536},
			},
			want: "0 1000 1\n1 100000 65536\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Format(tc.maps)
			if !bytes.Equal(got, []byte(tc.want)) {
				t.Errorf("Format = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSelfMap(t *testing.T) {
	got := selfMap(1234)
	if string(got) != "0 1234 1\n" {
		t.Errorf("selfMap = %q", got)
	}
}
