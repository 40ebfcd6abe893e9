package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chunga/ict-nodeops/kernel/connector"
	"github.com/chunga/ict-nodeops/kernel/node"
	"github.com/chunga/ict-nodeops/kernel/store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NodeopsMCPServer exposes node lifecycle operations to MCP clients.
type NodeopsMCPServer struct {
	server  *server.MCPServer
	store   store.StatusStore
	manager *node.Manager
}

func NewNodeopsMCPServer(s store.StatusStore, manager *node.Manager) *NodeopsMCPServer {
	srv := server.NewMCPServer(
		"Nodeops Agent Nodes",
		"v1.0.0",
		server.WithResourceCapabilities(true, true),
		server.WithToolCapabilities(true),
	)

	ns := &NodeopsMCPServer{
		server:  srv,
		store:   s,
		manager: manager,
	}

	ns.registerTools()
	ns.registerResources()

	return ns
}

func (ns *NodeopsMCPServer) ServeStdio() error {
	return server.ServeStdio(ns.server)
}

func (ns *NodeopsMCPServer) registerTools() {
	listTool := mcp.NewTool("list_nodes",
		mcp.WithDescription("List all configured agent nodes"),
	)
	ns.server.AddTool(listTool, ns.listNodesHandler)

	launchTool := mcp.NewTool("launch_node",
		mcp.WithDescription("Provision the cloud instance for a node and start its agent"),
		mcp.WithString("node",
			mcp.Description("Id of the node to launch"),
			mcp.Required(),
		),
	)
	ns.server.AddTool(launchTool, ns.launchNodeHandler)

	terminateTool := mcp.NewTool("terminate_node",
		mcp.WithDescription("Stop a node's agent and terminate its cloud instance"),
		mcp.WithString("node",
			mcp.Description("Id of the node to terminate"),
			mcp.Required(),
		),
	)
	ns.server.AddTool(terminateTool, ns.terminateNodeHandler)
}

func (ns *NodeopsMCPServer) registerResources() {
	resource := mcp.NewResource("nodeops://status", "Node Status",
		mcp.WithResourceDescription("Last observed status of all agent nodes"),
		mcp.WithMIMEType("application/json"),
	)
	ns.server.AddResource(resource, ns.statusHandler)
}

func (ns *NodeopsMCPServer) listNodesHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := ns.store.ListNodes()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list nodes: %v", err)), nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (ns *NodeopsMCPServer) launchNodeHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeId, err := request.RequireString("node")
	if err != nil {
		return mcp.NewToolResultError("node argument is required"), nil
	}

	n, ok := ns.manager.Get(nodeId)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("node [%s] is not registered", nodeId)), nil
	}

	controller, err := n.Launcher()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log := &bytes.Buffer{}
	progress := connector.NewWriterProgress(log)
	if err := controller.Launch(ctx, n.Target(), progress); err != nil {
		return mcp.NewToolResultError(log.String()), nil
	}

	ns.recordStatus(n)
	return mcp.NewToolResultText(log.String()), nil
}

func (ns *NodeopsMCPServer) terminateNodeHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeId, err := request.RequireString("node")
	if err != nil {
		return mcp.NewToolResultError("node argument is required"), nil
	}

	n, ok := ns.manager.Get(nodeId)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("node [%s] is not registered", nodeId)), nil
	}
	controller := n.Active()
	if controller == nil {
		return mcp.NewToolResultError(fmt.Sprintf("node [%s] has no active controller", nodeId)), nil
	}

	log := &bytes.Buffer{}
	if err := controller.AfterDisconnect(n.Target(), connector.NewWriterProgress(log)); err != nil {
		return mcp.NewToolResultError(log.String()), nil
	}

	_ = ns.store.DeleteStatus(nodeId)
	return mcp.NewToolResultText(log.String()), nil
}

func (ns *NodeopsMCPServer) recordStatus(n *node.Node) {
	controller := n.Active()
	if controller == nil {
		return
	}
	_ = ns.store.SaveStatus(store.NodeStatus{
		NodeId:     n.Id(),
		InstanceId: controller.InstanceId(),
		State:      "running",
		Address:    controller.Address(),
		UpdatedAt:  time.Now(),
	})
}

func (ns *NodeopsMCPServer) statusHandler(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := ns.store.ListNodes()
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}

	statuses := make([]store.NodeStatus, 0, len(ids))
	for _, id := range ids {
		if status, err := ns.store.GetStatus(id); err == nil {
			statuses = append(statuses, *status)
		} else {
			statuses = append(statuses, store.NodeStatus{NodeId: id, State: "absent"})
		}
	}

	data, err := json.Marshal(map[string]interface{}{
		"count": len(statuses),
		"nodes": statuses,
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "nodeops://status",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
