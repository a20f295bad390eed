package main

import (
	"strings"
	"testing"

	"github.com/alecthomas/participle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDecls(t *testing.T) {
	parser := participle.MustBuild(&SumDecls{})

	decls := SumDecls{}
	err := parser.ParseString(`sum Shape = *Circle | Square;`, &decls)
	require.NoError(t, err)
	require.Len(t, decls.Sums, 1)
	assert.True(t, decls.Sums[0].Variants[0].Pointer)
	assert.False(t, decls.Sums[0].Variants[1].Pointer)

	out := GenerateDecls("shapes", &decls)
	assert.True(t, strings.HasPrefix(out, "// Code generated by adtgen. DO NOT EDIT."))
	assert.Contains(t, out, "func (*Circle) isShape() {}")
	assert.Contains(t, out, "func (Square) isShape() {}")
}

func TestValidateDuplicates(t *testing.T) {
	parser := participle.MustBuild(&SumDecls{})

	decls := SumDecls{}
	require.NoError(t, parser.ParseString(`sum Shape = Square | Square;`, &decls))
	assert.Error(t, decls.Sums[0].Validate())
}
