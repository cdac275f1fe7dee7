// Package distmk declares and runs the build pipelines of Python
// distributions as goal/action graphs. Goals wrap artefacts, e.g. the files
// of a distribution version, and are reached by running actions. The actual
// work of an action is an [mkore.Operation]; this package ships operations
// for the Python packaging toolchain along with a project editing API, build
// tracers and a Graphviz diagrammer.
//
// The heavy lifting is done by the packages [mkore], [mkfs], [dist],
// [pipeline] and [hive]. distmk itself is the convenience surface for Go
// build scripts, see example/jsmfsb.
package distmk
