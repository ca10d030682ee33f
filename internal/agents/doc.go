// Package agents implements the four pipeline stages: the classifier, the
// decision stage, the compliance validator and the executor. Each stage knows
// only its own output vocabulary; routing between them lives in the pipeline
// package.
package agents
