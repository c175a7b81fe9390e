// Package orchestrator implements the flow orchestrator described in
// spec §4.6: after the minor-step loop converges, every link computes its
// flows, then links and nodes transport/integrate in a readiness-ordered
// loop so that a node never integrates before every link flowing into it
// has transported, and a link never transports from an overflowing source
// node that hasn't finished mixing yet.
//
// Grounded on GunnsFluidFlowOrchestrator's update/checkAllComplete/
// linkSourceNodesReady/nodeInputLinksComplete/countIncompleteLinks.
package orchestrator

import (
	"errors"

	"github.com/nasa-gunns/gunns-go/pkg/gunnserr"
	"github.com/nasa-gunns/gunns-go/pkg/link"
	"github.com/nasa-gunns/gunns-go/pkg/node"
	"github.com/nasa-gunns/gunns-go/pkg/notify"
)

// nodeState is a node's completion status for the current transport loop.
type nodeState int

const (
	incomplete nodeState = iota
	overflowing
	complete
)

// Orchestrator drives the transport/integrate readiness loop over a fixed
// set of links and nodes. Nodes flagged as ground (IsGround) are always
// complete.
type Orchestrator struct {
	links  []link.Link
	nodes  []*node.Node
	notify *notify.Channel

	linkDone  []bool
	nodeState []nodeState

	lastIncomplete int
}

// New constructs an Orchestrator over links and nodes. notifyCh may be nil,
// in which case early-transport cycle breaks are silently unreported.
func New(links []link.Link, nodes []*node.Node, notifyCh *notify.Channel) *Orchestrator {
	return &Orchestrator{
		links:     links,
		nodes:     nodes,
		notify:    notifyCh,
		linkDone:  make([]bool, len(links)),
		nodeState: make([]nodeState, len(nodes)),
	}
}

// Update runs one major step's flow transport per spec §4.6: computeFlows
// on every link, then loop transporting ready links and integrating ready
// nodes until all are complete. If the loop stalls (the incomplete link
// count fails to shrink), the first incomplete link is forced to transport
// early and a warning is posted; if that still leaves nodes stuck with no
// incomplete links remaining, Update returns a CausalityError. A
// NumericError from a node's state validation is posted as a warning and
// the node still counts as complete.
func (o *Orchestrator) Update(dt float64) error {
	for i, l := range o.links {
		if err := l.ComputeFlows(dt); err != nil {
			return err
		}
		o.linkDone[i] = false
	}
	o.lastIncomplete = len(o.links)

	for i, n := range o.nodes {
		if n.IsGround() {
			o.nodeState[i] = complete
			continue
		}
		if n.IsOverflowing(dt) {
			o.nodeState[i] = overflowing
		} else {
			o.nodeState[i] = incomplete
		}
	}

	for {
		for i, l := range o.links {
			if !o.linkDone[i] && o.linkSourceNodesReady(l) {
				if err := l.TransportFlows(dt); err != nil {
					return err
				}
				o.linkDone[i] = true
			}
		}

		for i, n := range o.nodes {
			if n.IsGround() || o.nodeState[i] == complete {
				continue
			}
			if o.nodeInputLinksComplete(i) {
				if err := n.IntegrateFlows(dt); err != nil {
					var numErr *gunnserr.NumericError
					if !errors.As(err, &numErr) {
						return err
					}
					if o.notify != nil {
						o.notify.Warn(n.Name(), err.Error())
					}
				}
				o.nodeState[i] = complete
			}
		}

		done, err := o.checkAllComplete(dt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// linkSourceNodesReady reports whether every source/both-direction port of
// l points at a node that is either complete or not overflowing.
func (o *Orchestrator) linkSourceNodesReady(l link.Link) bool {
	nodeMap := l.NodeMap()
	directions := l.PortDirections()
	for port, dir := range directions {
		if dir != link.Source && dir != link.Both {
			continue
		}
		if o.nodeState[nodeMap[port]] == overflowing {
			return false
		}
	}
	return true
}

// nodeInputLinksComplete reports whether every link flowing into node idx
// (a sink or both-direction port at that node) has transported.
func (o *Orchestrator) nodeInputLinksComplete(idx int) bool {
	for li, l := range o.links {
		if o.linkDone[li] {
			continue
		}
		nodeMap := l.NodeMap()
		directions := l.PortDirections()
		for port, dir := range directions {
			if nodeMap[port] == idx && (dir == link.Sink || dir == link.Both) {
				return false
			}
		}
	}
	return true
}

// checkAllComplete reports whether every link and non-ground node has
// completed. If the incomplete-link count hasn't shrunk since the last
// call, the loop is stuck on an overflow cycle: the first incomplete link
// is forced to transport early (breaking the cycle at the cost of
// conservation in its source nodes) and a warning is posted. If every link
// has transported but a non-ground node is still incomplete, it returns a
// CausalityError.
func (o *Orchestrator) checkAllComplete(dt float64) (bool, error) {
	remaining := o.countIncompleteLinks()
	if remaining == 0 && o.allNodesComplete() {
		o.lastIncomplete = 0
		return true, nil
	}

	if remaining == 0 || remaining >= o.lastIncomplete {
		idx, err := o.firstIncompleteLink()
		if err != nil {
			return false, err
		}
		l := o.links[idx]
		if err := l.TransportFlows(dt); err != nil {
			return false, err
		}
		o.linkDone[idx] = true
		if o.notify != nil {
			o.notify.Warn(l.Name(), "early overflow transport forced, conservation errors may result")
		}
	}
	o.lastIncomplete = remaining
	return false, nil
}

func (o *Orchestrator) allNodesComplete() bool {
	for i, n := range o.nodes {
		if n.IsGround() {
			continue
		}
		if o.nodeState[i] != complete {
			return false
		}
	}
	return true
}

func (o *Orchestrator) firstIncompleteLink() (int, error) {
	for i := range o.links {
		if !o.linkDone[i] {
			return i, nil
		}
	}
	return 0, gunnserr.NewCausalityError("no incomplete links remain but nodes are still stuck incomplete")
}

func (o *Orchestrator) countIncompleteLinks() int {
	n := 0
	for _, done := range o.linkDone {
		if !done {
			n++
		}
	}
	return n
}
