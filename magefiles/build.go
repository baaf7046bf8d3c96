//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Compiles the testbed binary into bin/.
func (Build) Engine() error {
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/anima2d", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Validates the sprite shaders with glslangValidator.
func (Build) Shaders() error {
	for _, shader := range []string{"sprite.vert", "sprite.frag"} {
		if _, err := executeCmd("glslangValidator", withArgs(shader), withDir("assets/shaders"), withStream()); err != nil {
			return err
		}
	}
	return nil
}
