package dummy

import "github.com/appotry/vespa/clusterstate"

// clusterStateSpace is the bucket space a cluster-state update is scoped
// to. The provider only reacts to updates for the default space; any other
// space's cluster state is accepted but otherwise ignored, matching
// setClusterState's behavior in the specification.
type clusterStateSpace = BucketSpace

// SetClusterState records the latest cluster state for space and, if the
// local node is now reported down, deactivates every bucket. nodeIndex
// identifies this node within the cluster state's per-node overrides.
func (p *DummyPersistence) SetClusterState(space clusterStateSpace, nodeIndex uint16, cs *clusterstate.ClusterState) Result {
	if space != DefaultBucketSpace {
		return Ok
	}
	p.clusterState = cs
	if !cs.NodeUp(nodeIndex) {
		p.store.ForEachBucket(func(_ Bucket, content *BucketContent) {
			content.SetActive(false)
		})
	}
	return Ok
}
