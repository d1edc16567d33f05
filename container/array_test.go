package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fib-lab/drivecore/container"
)

type item struct {
	container.IncrementalItemBase
	tag string
}

func TestIncrementalArrayAddAndPrepare(t *testing.T) {
	arr := container.NewIncrementalArray[*item]()
	a := &item{tag: "a"}
	b := &item{tag: "b"}
	arr.Add(a)
	arr.Add(b)
	assert.Equal(t, 0, arr.Len())

	arr.Prepare()
	assert.Equal(t, 2, arr.Len())
	assert.Equal(t, 0, a.Index())
	assert.Equal(t, 1, b.Index())
}

func TestIncrementalArrayRemoveReplacesWithAdd(t *testing.T) {
	arr := container.NewIncrementalArray[*item]()
	a := &item{tag: "a"}
	b := &item{tag: "b"}
	arr.Add(a)
	arr.Add(b)
	arr.Prepare()

	c := &item{tag: "c"}
	arr.Remove(a)
	arr.Add(c)
	arr.Prepare()

	assert.Equal(t, 2, arr.Len())
	tags := []string{arr.Data()[0].tag, arr.Data()[1].tag}
	assert.Contains(t, tags, "b")
	assert.Contains(t, tags, "c")
}

func TestIncrementalArrayMoreRemovesThanAdds(t *testing.T) {
	arr := container.NewIncrementalArray[*item]()
	a, b, c := &item{tag: "a"}, &item{tag: "b"}, &item{tag: "c"}
	arr.Add(a)
	arr.Add(b)
	arr.Add(c)
	arr.Prepare()
	require := assert.New(t)
	require.Equal(3, arr.Len())

	arr.Remove(a)
	arr.Remove(b)
	arr.Prepare()
	require.Equal(1, arr.Len())
	require.Equal("c", arr.Data()[0].tag)
}
