// Package pipeline routes stage outputs between the classifier, decision,
// validator and executor stages.
//
// Routing is a pure function, Transition, over a typed append-only Context.
// Stages never see the graph; the router is the only place that knows which
// output leads where.
package pipeline
