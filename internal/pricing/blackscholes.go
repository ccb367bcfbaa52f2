package pricing

import "math"

// BlackScholes prices a European option on a non-dividend stock.
func BlackScholes(p Params, sigma float64, call bool) float64 {
	sqrtT := math.Sqrt(p.Years)
	d1 := (math.Log(p.Spot/p.Strike) + (p.Rate+sigma*sigma/2)*p.Years) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	if call {
		return p.Spot*cdf(d1) - p.Strike*p.discount()*cdf(d2)
	}
	return p.Strike*p.discount()*cdf(-d2) - p.Spot*cdf(-d1)
}

// Black76 prices a European option on a future, Spot being the futures price.
func Black76(p Params, sigma float64, call bool) float64 {
	sqrtT := math.Sqrt(p.Years)
	d1 := (math.Log(p.Spot/p.Strike) + sigma*sigma/2*p.Years) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	if call {
		return p.discount() * (p.Spot*cdf(d1) - p.Strike*cdf(d2))
	}
	return p.discount() * (p.Strike*cdf(-d2) - p.Spot*cdf(-d1))
}
