package node

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syedmoizurrehman/DistributedKVStore/lib/store/fstore"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/codec"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/common"
	"github.com/syedmoizurrehman/DistributedKVStore/ring/transport/memory"
)

const (
	harnessTimeout  = 150 * time.Millisecond
	coordinatorAddr = "127.0.0.1"
	clientAddr      = "127.0.0.100"

	// Coordinator orchestrations wait out one harnessTimeout per dead
	// replica, so the client's own bound must be far more generous.
	clientTimeout = 3 * time.Second
)

// cluster is an in-process ring: one coordinator, any number of data nodes
// and a client, all wired through the channel-based memory transport.
type cluster struct {
	t       *testing.T
	net     *memory.Network
	cancel  context.CancelFunc
	ctx     context.Context
	codec   codec.ICodec
	config  *common.Config
	coord   *Node
	lookup  *fstore.LookupStore
	nodes   map[string]*Node
	records map[string]*fstore.RecordStore
	nextIP  int
}

func newCluster(t *testing.T) *cluster {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	c := &cluster{
		t:      t,
		net:    memory.NewNetwork(),
		ctx:    ctx,
		cancel: cancel,
		codec:  codec.NewTextCodec(),
		config: &common.Config{
			Role:               "coordinator",
			Port:               common.DefaultPort,
			CoordinatorAddress: coordinatorAddr,
			Transport:          "tcp",
			NetworkTimeoutMs:   int(harnessTimeout / time.Millisecond),
			ReplicationFactor:  common.DefaultReplicationFactor,
			DefaultRingSize:    common.DefaultRingSize,
			LogLevel:           "error",
		},
		nodes:   make(map[string]*Node),
		records: make(map[string]*fstore.RecordStore),
		nextIP:  2,
	}
	return c
}

// startCoordinator boots the coordinator and waits for it to come up.
func (c *cluster) startCoordinator() *Node {
	c.t.Helper()

	lookup, err := fstore.NewLookupStore(c.t.TempDir())
	require.NoError(c.t, err)
	c.lookup = lookup

	trans := c.net.NewTransport(harnessTimeout)
	require.NoError(c.t, trans.Listen(coordinatorAddr))

	c.coord = New(c.config, common.StatusCoordinator, coordinatorAddr, Deps{
		Transport: trans,
		Codec:     c.codec,
		Lookup:    lookup,
	})
	go c.coord.Run(c.ctx)

	c.waitFor(func() bool { return c.coord.State() == StateJoined }, "coordinator never came up")
	return c.coord
}

// startNode boots one data node, waits for it to join, and returns it.
func (c *cluster) startNode() *Node {
	c.t.Helper()

	addr := "127.0.0." + strconv.Itoa(c.nextIP)
	c.nextIP++

	records, err := fstore.NewRecordStore(c.t.TempDir())
	require.NoError(c.t, err)
	c.records[addr] = records

	trans := c.net.NewTransport(harnessTimeout)
	require.NoError(c.t, trans.Listen(addr))

	n := New(c.config, common.StatusNode, addr, Deps{
		Transport: trans,
		Codec:     c.codec,
		Records:   records,
	})
	c.nodes[addr] = n
	go n.Run(c.ctx)

	c.waitFor(func() bool { return n.State() == StateJoined }, "node "+addr+" never joined")
	return n
}

// client creates a fresh client bound to the coordinator.
func (c *cluster) client() *Client {
	return NewClient(clientAddr, coordinatorAddr, ClientDeps{
		Transport: c.net.NewTransport(clientTimeout),
		Codec:     c.codec,
	})
}

// kill partitions a node's address, simulating a dead peer.
func (c *cluster) kill(addr string) {
	c.net.Partition(addr)
}

// replicaAddrs resolves a key's placement to node addresses, mirroring the
// coordinator's view.
func (c *cluster) replicaAddrs(key string, ringSize int) []string {
	peers := c.coord.replicasFor(key, ringSize)
	addrs := make([]string, 0, len(peers))
	for _, p := range peers {
		addrs = append(addrs, p.Address)
	}
	return addrs
}

// waitFor polls a condition until it holds or the deadline passes.
func (c *cluster) waitFor(cond func() bool, msg string) {
	c.t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	c.t.Fatal(msg)
}
