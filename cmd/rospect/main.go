// SPDX-License-Identifier: MPL-2.0

// rospect inspects ROS workspaces: it identifies packages by their
// package.xml manifests, classifies build types and reports dependencies.
package main

func main() {
	Execute()
}
