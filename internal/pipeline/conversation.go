package pipeline

import (
	"context"
	"fmt"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/snare/internal/casefile"
)

// State keys carried through the conversation graphs.
const (
	keyCaseFile   = "case_file"
	keyReply      = "reply"
	keyClassified = "classified"
	keyOutcome    = "outcome"
	keyResponse   = "response"
)

const (
	nodeClassify   = "classify"
	nodeBait       = "bait"
	nodeSynthesize = "synthesize"
	nodePresent    = "present"
	nodeAbandon    = "abandon"
	nodeAdjudicate = "adjudicate"
	nodeRoute      = "route"
	nodeFollowUp   = "follow_up"
	nodeConclude   = "conclude"
)

// Open drives a new case file from StageInit to StageAwaitingReply and
// returns the reply presented to the user. When classification fails the
// case file is terminated and Open returns an empty reply.
//
// The opening graph runs classify → bait → synthesize → present, leaving
// through abandon when classification terminates the case file.
func (o *Orchestrator) Open(ctx context.Context, cf *casefile.CaseFile) (string, error) {
	graph, err := o.openGraph()
	if err != nil {
		return "", fmt.Errorf("build graph: %w", err)
	}

	final, err := graph.Execute(ctx, state.New(nil).Set(keyCaseFile, cf))
	if err != nil {
		return "", fmt.Errorf("execute graph: %w", err)
	}

	response, _ := final.Get(keyResponse)
	s, _ := response.(string)
	return s, nil
}

// Respond adjudicates the user's reply and routes the case file. On
// continued engagement the fresh bait is synthesized and presented, leaving
// the case file awaiting the next reply.
//
// The reply graph runs adjudicate → route, then branches on the routed
// action: continue goes through follow_up → synthesize → present, anything
// else exits through conclude.
func (o *Orchestrator) Respond(ctx context.Context, cf *casefile.CaseFile, reply string) (Outcome, error) {
	graph, err := o.replyGraph()
	if err != nil {
		return Outcome{}, fmt.Errorf("build graph: %w", err)
	}

	initial := state.New(nil).Set(keyCaseFile, cf).Set(keyReply, reply)
	final, err := graph.Execute(ctx, initial)
	if err != nil {
		return Outcome{}, fmt.Errorf("execute graph: %w", err)
	}

	out, err := outcomeOf(final)
	if err != nil {
		return Outcome{}, err
	}

	if response, ok := final.Get(keyResponse); ok {
		out.Response, _ = response.(string)
	}
	return out, nil
}

func newGraph(name string) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig(name)
	cfg.Observer = "noop"
	return state.NewGraph(cfg)
}

func (o *Orchestrator) openGraph() (state.StateGraph, error) {
	graph, err := newGraph("snare-open")
	if err != nil {
		return nil, err
	}

	nodes := []struct {
		name string
		node state.StateNode
	}{
		{nodeClassify, o.classifyNode()},
		{nodeBait, o.baitNode()},
		{nodeSynthesize, o.synthesizeNode()},
		{nodePresent, o.presentNode()},
		{nodeAbandon, passNode()},
	}
	for _, n := range nodes {
		if err := graph.AddNode(n.name, n.node); err != nil {
			return nil, err
		}
	}

	classified := state.KeyEquals(keyClassified, true)

	edges := []struct {
		from, to string
		pred     state.TransitionPredicate
	}{
		{nodeClassify, nodeBait, classified},
		{nodeClassify, nodeAbandon, state.Not(classified)},
		{nodeBait, nodeSynthesize, nil},
		{nodeSynthesize, nodePresent, nil},
	}
	for _, e := range edges {
		if err := graph.AddEdge(e.from, e.to, e.pred); err != nil {
			return nil, err
		}
	}

	if err := graph.SetEntryPoint(nodeClassify); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint(nodePresent); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint(nodeAbandon); err != nil {
		return nil, err
	}

	return graph, nil
}

func (o *Orchestrator) replyGraph() (state.StateGraph, error) {
	graph, err := newGraph("snare-reply")
	if err != nil {
		return nil, err
	}

	nodes := []struct {
		name string
		node state.StateNode
	}{
		{nodeAdjudicate, o.adjudicateNode()},
		{nodeRoute, o.routeNode()},
		{nodeFollowUp, o.actNode()},
		{nodeConclude, o.actNode()},
		{nodeSynthesize, o.synthesizeNode()},
		{nodePresent, o.presentNode()},
	}
	for _, n := range nodes {
		if err := graph.AddNode(n.name, n.node); err != nil {
			return nil, err
		}
	}

	edges := []struct {
		from, to string
		pred     state.TransitionPredicate
	}{
		{nodeAdjudicate, nodeRoute, nil},
		{nodeRoute, nodeFollowUp, continues},
		{nodeRoute, nodeConclude, state.Not(continues)},
		{nodeFollowUp, nodeSynthesize, nil},
		{nodeSynthesize, nodePresent, nil},
	}
	for _, e := range edges {
		if err := graph.AddEdge(e.from, e.to, e.pred); err != nil {
			return nil, err
		}
	}

	if err := graph.SetEntryPoint(nodeAdjudicate); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint(nodePresent); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint(nodeConclude); err != nil {
		return nil, err
	}

	return graph, nil
}

func caseFileOf(s state.State) (*casefile.CaseFile, error) {
	val, ok := s.Get(keyCaseFile)
	if !ok {
		return nil, fmt.Errorf("missing %s in state", keyCaseFile)
	}
	cf, ok := val.(*casefile.CaseFile)
	if !ok || cf == nil {
		return nil, fmt.Errorf("%s is not *casefile.CaseFile", keyCaseFile)
	}
	return cf, nil
}

func outcomeOf(s state.State) (Outcome, error) {
	val, ok := s.Get(keyOutcome)
	if !ok {
		return Outcome{}, fmt.Errorf("missing %s in state", keyOutcome)
	}
	out, ok := val.(Outcome)
	if !ok {
		return Outcome{}, fmt.Errorf("%s is not Outcome", keyOutcome)
	}
	return out, nil
}

func continues(s state.State) bool {
	out, err := outcomeOf(s)
	return err == nil && out.Action == casefile.ActionContinue
}

// caseNode adapts an operation on the case file into a graph node.
func caseNode(fn func(ctx context.Context, cf *casefile.CaseFile, s state.State) (state.State, error)) state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		cf, err := caseFileOf(s)
		if err != nil {
			return s, err
		}
		return fn(ctx, cf, s)
	})
}

func passNode() state.StateNode {
	return state.NewFunctionNode(func(_ context.Context, s state.State) (state.State, error) {
		return s, nil
	})
}

func (o *Orchestrator) classifyNode() state.StateNode {
	return caseNode(func(ctx context.Context, cf *casefile.CaseFile, s state.State) (state.State, error) {
		c, err := o.Classify(ctx, cf)
		if err != nil {
			return s, err
		}
		return s.Set(keyClassified, c != nil), nil
	})
}

func (o *Orchestrator) baitNode() state.StateNode {
	return caseNode(func(ctx context.Context, cf *casefile.CaseFile, s state.State) (state.State, error) {
		_, err := o.Bait(ctx, cf)
		return s, err
	})
}

func (o *Orchestrator) synthesizeNode() state.StateNode {
	return caseNode(func(ctx context.Context, cf *casefile.CaseFile, s state.State) (state.State, error) {
		_, err := o.Synthesize(ctx, cf)
		return s, err
	})
}

func (o *Orchestrator) presentNode() state.StateNode {
	return caseNode(func(_ context.Context, cf *casefile.CaseFile, s state.State) (state.State, error) {
		message, err := o.Present(cf)
		if err != nil {
			return s, err
		}
		return s.Set(keyResponse, message), nil
	})
}

func (o *Orchestrator) adjudicateNode() state.StateNode {
	return caseNode(func(ctx context.Context, cf *casefile.CaseFile, s state.State) (state.State, error) {
		val, _ := s.Get(keyReply)
		reply, _ := val.(string)
		_, err := o.Adjudicate(ctx, cf, reply)
		return s, err
	})
}

func (o *Orchestrator) routeNode() state.StateNode {
	return caseNode(func(_ context.Context, cf *casefile.CaseFile, s state.State) (state.State, error) {
		out, err := o.decide(cf)
		if err != nil {
			return s, err
		}
		return s.Set(keyOutcome, out), nil
	})
}

func (o *Orchestrator) actNode() state.StateNode {
	return caseNode(func(ctx context.Context, cf *casefile.CaseFile, s state.State) (state.State, error) {
		out, err := outcomeOf(s)
		if err != nil {
			return s, err
		}
		return s.Set(keyOutcome, o.act(ctx, cf, out)), nil
	})
}
