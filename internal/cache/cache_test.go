package cache

import (
	"fmt"
	"testing"

	"github.com/sodl-lang/sodlc/internal/compiler"
)

func TestKeyIsDeterministic(t *testing.T) {
	a := Key([]byte("system \"App\":"))
	b := Key([]byte("system \"App\":"))
	c := Key([]byte("system \"Other\":"))

	if a != b {
		t.Error("same content produced different keys")
	}
	if a == c {
		t.Error("different content produced the same key")
	}
}

func TestAddAndGet(t *testing.T) {
	c, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("hit on an empty cache")
	}

	result := compiler.CompileText("module M:\n    doc = \"x\"\n", "m.sodl")
	key := Key([]byte("module M:\n    doc = \"x\"\n"))
	c.Add(key, result)

	got, ok := c.Get(key)
	if !ok || got != result {
		t.Errorf("Get = %v, %v", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestEviction(t *testing.T) {
	c, err := New(2)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		src := fmt.Sprintf("module M%d:\n    doc = \"x\"\n", i)
		c.Add(Key([]byte(src)), compiler.CompileText(src, "m.sodl"))
	}

	if c.Len() != 2 {
		t.Errorf("Len = %d, want capacity 2", c.Len())
	}
	if _, ok := c.Get(Key([]byte("module M0:\n    doc = \"x\"\n"))); ok {
		t.Error("oldest entry survived past capacity")
	}
}

func TestPurge(t *testing.T) {
	c, err := New(4)
	if err != nil {
		t.Fatal(err)
	}
	c.Add("k", compiler.CompileText("module M:\n", "m.sodl"))
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len after purge = %d", c.Len())
	}
}
