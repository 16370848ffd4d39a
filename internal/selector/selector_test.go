package selector_test

import (
	"net/url"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cluster-transport/internal/conn"
	"github.com/angeloszaimis/cluster-transport/internal/selector"
)

func TestSelector(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Selector Suite")
}

var _ = Describe("RoundRobin", func() {
	var (
		sel   selector.Selector
		conns []*conn.Conn
	)

	BeforeEach(func() {
		sel = selector.NewRoundRobinSelector()

		conns = []*conn.Conn{
			conn.New(mustParseURL("http://localhost:9200"), nil),
			conn.New(mustParseURL("http://localhost:9201"), nil),
			conn.New(mustParseURL("http://localhost:9202"), nil),
		}
	})

	Describe("Next", func() {
		Context("with multiple connections", func() {
			It("should cycle through connections in order", func() {
				Expect(sel.Next(conns)).To(Equal(conns[0]))
				Expect(sel.Next(conns)).To(Equal(conns[1]))
				Expect(sel.Next(conns)).To(Equal(conns[2]))
				Expect(sel.Next(conns)).To(Equal(conns[0]))
			})

			It("should distribute selections evenly", func() {
				counts := make(map[string]int)
				for i := 0; i < 300; i++ {
					selected := sel.Next(conns)
					counts[selected.URL().String()]++
				}
				Expect(counts["http://localhost:9200"]).To(Equal(100))
				Expect(counts["http://localhost:9201"]).To(Equal(100))
				Expect(counts["http://localhost:9202"]).To(Equal(100))
			})

			It("should persist the cursor across shrinking sets", func() {
				Expect(sel.Next(conns)).To(Equal(conns[0]))

				remaining := []*conn.Conn{conns[0], conns[2]}
				Expect(sel.Next(remaining)).To(Equal(remaining[1]))
				Expect(sel.Next(remaining)).To(Equal(remaining[0]))
			})
		})

		Context("with an empty set", func() {
			It("should return nil", func() {
				Expect(sel.Next([]*conn.Conn{})).To(BeNil())
			})
		})
	})
})

var _ = Describe("Random", func() {
	var (
		sel   selector.Selector
		conns []*conn.Conn
	)

	BeforeEach(func() {
		sel = selector.NewRandomSelector()
		conns = []*conn.Conn{
			conn.New(mustParseURL("http://localhost:9200"), nil),
			conn.New(mustParseURL("http://localhost:9201"), nil),
			conn.New(mustParseURL("http://localhost:9202"), nil),
		}
	})

	It("should always pick a connection from the set", func() {
		for i := 0; i < 100; i++ {
			Expect(conns).To(ContainElement(sel.Next(conns)))
		}
	})

	It("should eventually pick every connection", func() {
		counts := make(map[*conn.Conn]int)
		for i := 0; i < 300; i++ {
			counts[sel.Next(conns)]++
		}

		Expect(len(counts)).To(Equal(3))
		for _, count := range counts {
			Expect(count).To(BeNumerically(">", 0))
		}
	})

	It("should return nil for an empty set", func() {
		Expect(sel.Next(nil)).To(BeNil())
	})
})

var _ = Describe("Table-Driven Selector Tests", func() {
	DescribeTable("All selectors can be instantiated",
		func(createSel func() selector.Selector) {
			sel := createSel()
			Expect(sel).NotTo(BeNil())
		},
		Entry("Round Robin", func() selector.Selector { return selector.NewRoundRobinSelector() }),
		Entry("Random", func() selector.Selector { return selector.NewRandomSelector() }),
	)

	DescribeTable("All selectors pick from the given set",
		func(createSel func() selector.Selector) {
			sel := createSel()
			conns := []*conn.Conn{
				conn.New(mustParseURL("http://localhost:9200"), nil),
				conn.New(mustParseURL("http://localhost:9201"), nil),
			}

			Expect(conns).To(ContainElement(sel.Next(conns)))
		},
		Entry("Round Robin", func() selector.Selector { return selector.NewRoundRobinSelector() }),
		Entry("Random", func() selector.Selector { return selector.NewRandomSelector() }),
	)
})

func mustParseURL(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return u
}
