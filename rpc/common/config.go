package common

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lni/dragonboat/v4/config"
)

// --------------------------------------------------------------------------
// Dragonboat helpers (replicated shards)
// --------------------------------------------------------------------------

// Election and heartbeat timing in multiples of RTTMillisecond.
const (
	electionRTTFactor  = 10
	heartbeatRTTFactor = 1
)

// ToDragonboatConfig converts the ServerConfig to a Dragonboat Config for one shard
func (c *ServerConfig) ToDragonboatConfig(shardID uint64) config.Config {
	return config.Config{
		ReplicaID:          c.ReplicaID,
		ShardID:            shardID,
		ElectionRTT:        electionRTTFactor,
		HeartbeatRTT:       heartbeatRTTFactor,
		CheckQuorum:        true,
		SnapshotEntries:    c.SnapshotEntries,
		CompactionOverhead: c.CompactionOverhead,
	}
}

// ToNodeHostConfig creates a NodeHostConfig for Dragonboat
func (c *ServerConfig) ToNodeHostConfig() config.NodeHostConfig {
	return config.NodeHostConfig{
		WALDir:         c.DataDir,
		NodeHostDir:    c.DataDir,
		RTTMillisecond: c.RTTMillisecond,
		RaftAddress:    c.ClusterMembers[c.ReplicaID],
	}
}

// --------------------------------------------------------------------------
// RPC server configuration
// --------------------------------------------------------------------------

// ServerShardType names the store backing a shard.
type ServerShardType string

const (
	ShardTypeLocalIStore    ServerShardType = "lstore"
	ShardTypeRemoteIStore   ServerShardType = "dstore"
	ShardTypePostgresIStore ServerShardType = "pgstore"
)

// ParseShardType converts the command line name of a shard type.
func ParseShardType(s string) (ServerShardType, error) {
	switch t := ServerShardType(strings.TrimSpace(s)); t {
	case ShardTypeLocalIStore, ShardTypeRemoteIStore, ShardTypePostgresIStore:
		return t, nil
	default:
		return "", fmt.Errorf("invalid shard type: %s (expected one of: lstore, dstore, pgstore)", s)
	}
}

type ServerShard struct {
	// ShardID is the ID of the shard
	ShardID uint64
	// Type selects the store of the shard
	Type ServerShardType
}

// ServerConfig holds all configuration parameters of a dUID server.
type ServerConfig struct {
	Shards []ServerShard

	// Dragonboat parameters
	RTTMillisecond     uint64
	SnapshotEntries    uint64
	CompactionOverhead uint64
	DataDir            string
	ReplicaID          uint64
	ClusterMembers     map[uint64]string

	// PostgreSQL parameters (pgstore shards)
	PostgresDSN   string
	PostgresTable string

	// Timeout of store operations
	TimeoutSecond int64

	// Endpoint the transport listens on
	Endpoint string

	// Metrics enables GET /metrics on the transport
	Metrics bool

	// Logging configuration
	LogLevel string
}

// HasRemoteShard checks if the configuration contains any replicated shards
func (c *ServerConfig) HasRemoteShard() bool {
	return c.hasShard(ShardTypeRemoteIStore)
}

// HasPostgresShard checks if the configuration contains any PostgreSQL shards
func (c *ServerConfig) HasPostgresShard() bool {
	return c.hasShard(ShardTypePostgresIStore)
}

func (c *ServerConfig) hasShard(t ServerShardType) bool {
	for _, shard := range c.Shards {
		if shard.Type == t {
			return true
		}
	}
	return false
}

// section writes an upper case section title, field writes one aligned line
func section(sb *strings.Builder, title string) {
	sb.WriteString("\n")
	sb.WriteString(strings.ToUpper(title))
	sb.WriteString("\n")
}

func field(sb *strings.Builder, name, value string) {
	sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	section(&sb, "RPC Server")
	field(&sb, "Endpoint", c.Endpoint)
	field(&sb, "Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	field(&sb, "Metrics", strconv.FormatBool(c.Metrics))

	section(&sb, "Logging")
	field(&sb, "Log Level", c.LogLevel)

	section(&sb, "Shards")
	for _, shard := range c.Shards {
		field(&sb, strconv.FormatUint(shard.ShardID, 10), string(shard.Type))
	}

	if c.HasPostgresShard() {
		section(&sb, "PostgreSQL")
		field(&sb, "DSN", redactDSN(c.PostgresDSN))
		field(&sb, "Table", c.PostgresTable)
	}

	if c.HasRemoteShard() {
		section(&sb, "Node Identity")
		field(&sb, "RAFT Address", c.ClusterMembers[c.ReplicaID])
		field(&sb, "Node ID", strconv.FormatUint(c.ReplicaID, 10))

		section(&sb, "RAFT Parameters")
		field(&sb, "Round Trip Time (ms)", fmt.Sprintf("%d ms", c.RTTMillisecond))
		field(&sb, "Election RTT (ms)", fmt.Sprintf("%d", c.RTTMillisecond*electionRTTFactor))
		field(&sb, "Heartbeat RTT (ms)", fmt.Sprintf("%d", c.RTTMillisecond*heartbeatRTTFactor))
		field(&sb, "Snapshot Entries", fmt.Sprintf("%d", c.SnapshotEntries))
		field(&sb, "Compaction Overhead", fmt.Sprintf("%d", c.CompactionOverhead))
		field(&sb, "Data Directory", c.DataDir)

		section(&sb, "Cluster")
		keys := make([]uint64, 0, len(c.ClusterMembers))
		for k := range c.ClusterMembers {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("    Node %d: %s\n", k, c.ClusterMembers[k]))
		}
	}
	return sb.String()
}

// redactDSN hides the password of a postgres:// URL
func redactDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return "***"
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":***@" + host
}

// --------------------------------------------------------------------------
// RPC client configuration
// --------------------------------------------------------------------------

type ClientConfig struct {
	Endpoints     []string
	TimeoutSecond int
	RetryCount    int
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	section(&sb, "Client Configuration")
	field(&sb, "Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	field(&sb, "Retry Count", strconv.Itoa(c.RetryCount))

	section(&sb, "Endpoints")
	for i, endpoint := range c.Endpoints {
		field(&sb, strconv.Itoa(i), endpoint)
	}
	return sb.String()
}
