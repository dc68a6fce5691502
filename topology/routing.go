package topology

import (
	"math"

	"github.com/ft4fttsim/ft4fttsim/networking"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

type connEdge struct {
	a, b int64
}

// connGraph is the device-level view of the network: one node per device,
// one edge per pair of linked devices.
type connGraph struct {
	nodeID   map[string]int64
	names    []string
	isSwitch map[int64]bool
	edges    []connEdge
	portsTo  map[int64]map[int64][]*networking.Port
	portDevs map[*networking.Port]int64
}

func (n *Network) buildConnGraph() *connGraph {
	cg := &connGraph{
		nodeID:   make(map[string]int64),
		isSwitch: make(map[int64]bool),
		portsTo:  make(map[int64]map[int64][]*networking.Port),
		portDevs: make(map[*networking.Port]int64),
	}

	for i, name := range n.order {
		id := int64(i)
		cg.nodeID[name] = id
		cg.names = append(cg.names, name)
		cg.portsTo[id] = make(map[int64][]*networking.Port)

		if _, found := n.switches[name]; found {
			cg.isSwitch[id] = true
		}

		for _, p := range n.devices[name].Ports() {
			cg.portDevs[p] = id
		}
	}

	for _, l := range n.links {
		s := l.Sublinks()[0]
		a, aFound := cg.portDevs[s.Transmitter()]
		b, bFound := cg.portDevs[s.Receiver()]
		if !aFound || !bFound || a == b {
			continue
		}

		if len(cg.portsTo[a][b]) == 0 {
			cg.edges = append(cg.edges, connEdge{a: a, b: b})
		}

		cg.portsTo[a][b] = append(cg.portsTo[a][b], s.Transmitter())
		cg.portsTo[b][a] = append(cg.portsTo[b][a], s.Receiver())
	}

	return cg
}

// towards returns the graph that frames addressed to dst can travel on.
// Only switches forward, so apart from the edges of dst itself only the
// edges between two switches are kept.
func (cg *connGraph) towards(dst int64) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))

	for id := range cg.names {
		g.AddNode(simple.Node(int64(id)))
	}

	for _, e := range cg.edges {
		forwards := cg.isSwitch[e.a] && cg.isSwitch[e.b]
		if !forwards && e.a != dst && e.b != dst {
			continue
		}

		g.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(e.a),
			T: simple.Node(e.b),
			W: 1.0,
		})
	}

	return g
}

// computeForwardingTables gives every switch an entry for every device it
// can reach through switches. The entry is the first port leading to the
// next hop of a shortest path.
func (n *Network) computeForwardingTables() error {
	cg := n.buildConnGraph()

	for _, dstName := range n.order {
		to := cg.nodeID[dstName]
		tree := path.DijkstraFrom(simple.Node(to), cg.towards(to))

		for _, swName := range n.order {
			sw, isSwitch := n.switches[swName]
			from := cg.nodeID[swName]
			if !isSwitch || from == to {
				continue
			}

			hops, _ := tree.To(from)
			if len(hops) < 2 {
				continue
			}

			ports := cg.portsTo[from][nextHop(hops)]
			if len(ports) == 0 {
				continue
			}

			err := sw.DefineRoute(n.devices[dstName], ports[0])
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// nextHop returns the node after the switch on a path that runs from the
// destination back to the switch.
func nextHop(hops []graph.Node) int64 {
	return hops[len(hops)-2].ID()
}
