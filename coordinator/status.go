package coordinator

// auxRenders is how many renders an auxiliary status survives.
const auxRenders = 5

// auxSep joins the base status and the auxiliary status.
const auxSep = "+++"

func (c *Coordinator) setAux(s string) {
	c.aux = s
	c.auxCount = 0
}

// renderStatus returns the displayed status and ages the auxiliary part.
func (c *Coordinator) renderStatus() string {
	if c.auxCount > auxRenders {
		c.aux = ""
		c.auxCount = 0
	} else {
		c.auxCount++
	}
	if c.aux == "" {
		return c.status
	}
	return c.status + auxSep + c.aux
}
