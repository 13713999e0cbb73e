package service

import (
	"fmt"
	"net"
	"strconv"

	"finance-hertz/biz/util"

	"github.com/hashicorp/consul/api"
)

// ConsulHelper 封装 Consul 服务注册
// 使用前请确保 Consul agent 已启动
type ConsulHelper struct {
	client *api.Client
}

// NewConsulHelperWithAddrs 支持多个 Consul 地址高可用，返回第一个可用的
func NewConsulHelperWithAddrs(addrs []string) (*ConsulHelper, error) {
	var lastErr error
	for _, addr := range addrs {
		cfg := api.DefaultConfig()
		cfg.Address = addr
		cli, err := api.NewClient(cfg)
		if err != nil {
			lastErr = err
			continue
		}
		if _, err := cli.Agent().Self(); err != nil {
			lastErr = err
			continue
		}
		return &ConsulHelper{client: cli}, nil
	}
	return nil, fmt.Errorf("all consul addresses failed: %v", lastErr)
}

// ServiceRegistration 按监听地址构造注册信息，host 为空时取本机内网 IP
func ServiceRegistration(nodeID, name, listenAddr string) (*api.AgentServiceRegistration, error) {
	host, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = util.GetLocalIP()
	}
	if nodeID == "" {
		nodeID = fmt.Sprintf("%s-%s-%d", name, host, port)
	}
	return &api.AgentServiceRegistration{
		ID:      nodeID,
		Name:    name,
		Address: host,
		Port:    port,
		Check: &api.AgentServiceCheck{
			TCP:                            net.JoinHostPort(host, portStr),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}, nil
}

// Register 注册服务到 Consul
func (c *ConsulHelper) Register(reg *api.AgentServiceRegistration) error {
	return c.client.Agent().ServiceRegister(reg)
}

func (c *ConsulHelper) Deregister(serviceID string) error {
	return c.client.Agent().ServiceDeregister(serviceID)
}

// Client 返回 consul client
func (c *ConsulHelper) Client() *api.Client {
	return c.client
}
