package cli

import (
	"github.com/spf13/pflag"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

// tabValue is a pflag.Value restricted to the panel tabs.
type tabValue struct {
	tab *domain.Tab
}

var _ pflag.Value = tabValue{}

func newTabValue(def domain.Tab, p *domain.Tab) tabValue {
	*p = def
	return tabValue{tab: p}
}

func (v tabValue) String() string {
	if v.tab == nil {
		return ""
	}
	return string(*v.tab)
}

func (v tabValue) Set(s string) error {
	t, err := domain.ParseTab(s)
	if err != nil {
		return err
	}
	*v.tab = t
	return nil
}

func (v tabValue) Type() string { return "tab" }
