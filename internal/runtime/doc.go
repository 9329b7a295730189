// Package runtime maps a Java version key to the executable and engine
// artifact used to run the MuleSoft secure properties tool.
//
// The supported set of versions is closed: 1.8, 11 and 17. Versions 1.8 and 11
// share the java8-11 artifact, 17 has its own. Executable resolution prefers a
// per-version JAVA_HOME override and otherwise falls back to a bare "java"
// resolved through PATH at launch time. Artifact existence is checked lazily
// on every resolution so that a misconfigured but unused version never blocks
// the others.
package runtime
