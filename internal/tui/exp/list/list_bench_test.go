package list

import (
	"fmt"
	"testing"
)

// Mock item for benchmarking
type benchItem struct {
	id      string
	content string
}

func (b benchItem) ID() string {
	return b.id
}

func (b benchItem) Render(int) string {
	return b.content
}

// createBenchItems creates n items for benchmarking
func createBenchItems(n int) []benchItem {
	items := make([]benchItem, n)
	for i := range n {
		items[i] = benchItem{
			id:      fmt.Sprintf("item-%d", i),
			content: fmt.Sprintf("This is item %d with some content that spans multiple lines\nLine 2\nLine 3", i),
		}
	}
	return items
}

func newBenchList(b *testing.B, n int) *List[benchItem] {
	b.Helper()
	l, err := New(createBenchItems(n), WithSize(80, 30))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(l.Close)
	l.Init()
	return l
}

// BenchmarkListRender benchmarks the render performance with different list sizes
func BenchmarkListRender(b *testing.B) {
	sizes := []int{100, 500, 1000, 5000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Items_%d", size), func(b *testing.B) {
			list := newBenchList(b, size)

			b.ResetTimer()
			for b.Loop() {
				list.render()
			}
		})
	}
}

// BenchmarkListScroll benchmarks scrolling performance
func BenchmarkListScroll(b *testing.B) {
	sizes := []int{100, 500, 1000, 5000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Items_%d", size), func(b *testing.B) {
			list := newBenchList(b, size)

			b.ResetTimer()
			for b.Loop() {
				list.MoveDown(10)
				list.MoveUp(10)
			}
		})
	}
}

// BenchmarkListMemory benchmarks memory allocation
func BenchmarkListMemory(b *testing.B) {
	sizes := []int{100, 1000, 10000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Items_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				list, _ := New(createBenchItems(size), WithSize(80, 30))
				list.Init()
				_ = list.View()
				list.Close()
			}
		})
	}
}

// BenchmarkVirtualScrolling specifically tests virtual scrolling efficiency
func BenchmarkVirtualScrolling(b *testing.B) {
	list := newBenchList(b, 10000)

	b.Run("ScrollThroughList", func(b *testing.B) {
		for b.Loop() {
			for range 100 {
				list.MoveDown(100)
			}
			list.GoToTop()
		}
	})

	b.Run("JumpToEnd", func(b *testing.B) {
		for b.Loop() {
			list.GoToBottom()
			list.GoToTop()
		}
	})
}
