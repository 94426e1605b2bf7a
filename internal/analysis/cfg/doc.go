// # Description
//
// Package cfg holds the control flow graph that an analysis result is expressed over.
//
// ## Control Flow Graph (CFG)
//
// A CFG is a representation, using graph notation, of all paths that might be traversed
// through a program during its execution. In this package:
//
//   - Each node is a program location the analysis computed a fact for.
//   - The directed edges are the intra-procedural successor relation.
//
// Nodes are classified the way witness emission needs them:
//
//   - Statement, FunctionEntry and FunctionReturn kinds. Entry and return nodes report a
//     location outside the function body, so no assertion can be placed there.
//   - Loop heads, which carry loop invariants.
//   - Synthetic nodes, introduced by program transformation rather than present in the source.
//   - Nodes of stub functions, which only have an approximate summary instead of a body.
//
// ## Package Functionality
//
//  1. Graph construction: AddFunction, AddNode and AddEdge.
//  2. Classification: Node.IsStatement, Node.LoopHead, Node.Synthetic and Graph.IsStub.
//  3. Traversal: Nodes returns nodes in insertion order, Successors follows edges.
package cfg
