package pricing

import "math"

// Volatility in both Bachelier variants is relative: the absolute normal
// volatility is sigma times the (discounted) strike.

// BachelierStock prices an option on a stock under arithmetic Brownian motion.
func BachelierStock(p Params, sigma float64, call bool) float64 {
	k := p.Strike * p.discount()
	width := k * sigma * math.Sqrt(p.Years)
	d := (p.Spot - k) / width
	c := (p.Spot-k)*cdf(d) + width*pdf(d)
	if call {
		return c
	}
	return c + k - p.Spot
}

// BachelierFuture prices an option on a future under arithmetic Brownian motion.
func BachelierFuture(p Params, sigma float64, call bool) float64 {
	df := p.discount()
	width := p.Strike * sigma * math.Sqrt(p.Years)
	d := (p.Spot - p.Strike) / width
	c := df * ((p.Spot-p.Strike)*cdf(d) + width*pdf(d))
	if call {
		return c
	}
	return c + df*(p.Strike-p.Spot)
}
