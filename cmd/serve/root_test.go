package serve

import (
	"testing"

	"github.com/ValentinKolb/dUID/cmd/util"
	"github.com/ValentinKolb/dUID/rpc/common"
	"github.com/matryer/is"
)

func TestParseShards(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []common.ServerShard
		wantErr bool
	}{
		{
			name: "single",
			in:   "100=lstore",
			want: []common.ServerShard{{ShardID: 100, Type: common.ShardTypeLocalIStore}},
		},
		{
			name: "mixed with spaces",
			in:   "100=lstore, 200 = pgstore,300=dstore",
			want: []common.ServerShard{
				{ShardID: 100, Type: common.ShardTypeLocalIStore},
				{ShardID: 200, Type: common.ShardTypePostgresIStore},
				{ShardID: 300, Type: common.ShardTypeRemoteIStore},
			},
		},
		{name: "missing type", in: "100", wantErr: true},
		{name: "bad id", in: "x=lstore", wantErr: true},
		{name: "unknown type", in: "100=lockmgr", wantErr: true},
		{name: "duplicate id", in: "100=lstore,100=pgstore", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			got, err := parseShards(tt.in)
			if tt.wantErr {
				is.True(err != nil)
				return
			}
			is.NoErr(err)
			is.Equal(got, tt.want)
		})
	}
}

func TestParseClusterMembers(t *testing.T) {
	is := is.New(t)

	members, err := parseClusterMembers("node-1=localhost:63001,node-2=localhost:63002")
	is.NoErr(err)
	is.Equal(len(members), 2)
	is.Equal(members[util.HashString("node-1")], "localhost:63001")
	is.True(util.HashString("node-1") != util.HashString("node-2"))

	_, err = parseClusterMembers("node-1")
	is.True(err != nil)
}
