package clusterstate

import "testing"

func TestParseNodeDownIsNotUp(t *testing.T) {
	cs, err := Parse("version:1 cluster:u .0.s:u .1.s:d")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cs.NodeUp(0) {
		t.Fatal("node 0 should be up")
	}
	if cs.NodeUp(1) {
		t.Fatal("node 1 should be down")
	}
}

func TestParseNodeWithNoOverrideDefaultsUp(t *testing.T) {
	cs, err := Parse("version:1 cluster:u")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !cs.NodeUp(5) {
		t.Fatal("a node with no override should default to up")
	}
}

func TestClusterDownForcesEveryNodeDown(t *testing.T) {
	cs, err := Parse("version:1 cluster:d .0.s:u")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cs.NodeUp(0) {
		t.Fatal("an overall down cluster state must force every node down regardless of per-node override")
	}
}

func TestParseRejectsMalformedToken(t *testing.T) {
	if _, err := Parse("garbage"); err == nil {
		t.Fatal("expected an error for a token missing ':'")
	}
}
