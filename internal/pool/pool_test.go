package pool_test

import (
	"log/slog"
	"net/url"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/cluster-transport/internal/conn"
	"github.com/angeloszaimis/cluster-transport/internal/pool"
	"github.com/angeloszaimis/cluster-transport/internal/selector"
)

func TestPool(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pool Suite")
}

var _ = Describe("Pool", func() {
	var (
		log   *slog.Logger
		conns []*conn.Conn
	)

	BeforeEach(func() {
		log = slog.Default()

		conns = []*conn.Conn{
			conn.New(mustParseURL("http://localhost:9200"), nil),
			conn.New(mustParseURL("http://localhost:9201"), nil),
			conn.New(mustParseURL("http://localhost:9202"), nil),
		}
	})

	Describe("Next", func() {
		Context("with an empty pool", func() {
			It("should fail with ErrNoConnections", func() {
				p := pool.New(nil, pool.Config{}, log)

				c, err := p.Next()

				Expect(c).To(BeNil())
				Expect(err).To(MatchError(pool.ErrNoConnections))
			})
		})

		Context("with all connections alive", func() {
			It("should select each connection exactly once per cycle", func() {
				p := pool.New(conns, pool.Config{}, log)

				first, err := p.Next()
				Expect(err).NotTo(HaveOccurred())
				second, err := p.Next()
				Expect(err).NotTo(HaveOccurred())
				third, err := p.Next()
				Expect(err).NotTo(HaveOccurred())

				Expect(first).To(Equal(conns[0]))
				Expect(second).To(Equal(conns[1]))
				Expect(third).To(Equal(conns[2]))
			})
		})

		Context("with a dead connection still backing off", func() {
			It("should cycle only over the alive connections", func() {
				p := pool.New(conns, pool.Config{
					BaseDelay: time.Hour,
					MaxDelay:  time.Hour,
				}, log)

				p.MarkDead(conns[1])

				for i := 0; i < 6; i++ {
					c, err := p.Next()
					Expect(err).NotTo(HaveOccurred())
					Expect(c).NotTo(Equal(conns[1]))
				}
			})
		})

		Context("with a dead connection whose backoff has elapsed", func() {
			It("should make it eligible again", func() {
				p := pool.New(conns[:1], pool.Config{
					BaseDelay: time.Millisecond,
					MaxDelay:  time.Millisecond,
				}, log)

				p.MarkDead(conns[0])
				time.Sleep(5 * time.Millisecond)

				c, err := p.Next()

				Expect(err).NotTo(HaveOccurred())
				Expect(c).To(Equal(conns[0]))
			})
		})

		Context("with every connection dead and backing off", func() {
			It("should return the longest-dead connection as a probe", func() {
				p := pool.New(conns, pool.Config{
					BaseDelay: time.Hour,
					MaxDelay:  time.Hour,
				}, log)

				p.MarkDead(conns[2])
				time.Sleep(2 * time.Millisecond)
				p.MarkDead(conns[0])
				time.Sleep(2 * time.Millisecond)
				p.MarkDead(conns[1])

				c, err := p.Next()

				Expect(err).NotTo(HaveOccurred())
				Expect(c).To(Equal(conns[2]))
			})

			It("should never fail on a non-empty pool", func() {
				p := pool.New(conns, pool.Config{
					BaseDelay: time.Hour,
					MaxDelay:  time.Hour,
				}, log)

				for _, c := range conns {
					p.MarkDead(c)
				}

				for i := 0; i < 10; i++ {
					c, err := p.Next()
					Expect(err).NotTo(HaveOccurred())
					Expect(c).NotTo(BeNil())
				}
			})
		})

		Context("with a random selector", func() {
			It("should pick among the alive connections", func() {
				p := pool.New(conns, pool.Config{
					Selector:  selector.NewRandomSelector(),
					BaseDelay: time.Hour,
					MaxDelay:  time.Hour,
				}, log)

				p.MarkDead(conns[0])

				for i := 0; i < 20; i++ {
					c, err := p.Next()
					Expect(err).NotTo(HaveOccurred())
					Expect(c).NotTo(Equal(conns[0]))
				}
			})
		})
	})

	Describe("Health transitions", func() {
		var p *pool.Pool

		BeforeEach(func() {
			p = pool.New(conns, pool.Config{}, log)
		})

		It("should track consecutive failures", func() {
			p.MarkDead(conns[0])
			p.MarkDead(conns[0])
			p.MarkDead(conns[0])

			Expect(conns[0].IsAlive()).To(BeFalse())
			Expect(conns[0].Failures()).To(Equal(3))
		})

		It("should reset the failure count on MarkAlive", func() {
			p.MarkDead(conns[0])
			p.MarkDead(conns[0])
			p.MarkDead(conns[0])

			p.MarkAlive(conns[0])

			Expect(conns[0].IsAlive()).To(BeTrue())
			Expect(conns[0].Failures()).To(BeZero())
		})
	})

	Describe("New", func() {
		It("should fall back to the default logger when given nil", func() {
			p := pool.New(conns, pool.Config{}, nil)

			p.MarkDead(conns[0])
			p.MarkAlive(conns[0])

			Expect(conns[0].IsAlive()).To(BeTrue())
		})
	})

	Describe("Introspection", func() {
		It("should expose connections and URLs in insertion order", func() {
			p := pool.New(conns, pool.Config{}, log)

			Expect(p.Len()).To(Equal(3))
			Expect(p.Conns()).To(Equal(conns))

			urls := p.URLs()
			Expect(urls).To(HaveLen(3))
			Expect(urls[0].String()).To(Equal("http://localhost:9200"))
			Expect(urls[2].String()).To(Equal("http://localhost:9202"))
		})
	})
})

func mustParseURL(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return u
}
