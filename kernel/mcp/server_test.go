package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/chunga/ict-nodeops/kernel/connector"
	"github.com/chunga/ict-nodeops/kernel/ec2"
	"github.com/chunga/ict-nodeops/kernel/node"
	"github.com/chunga/ict-nodeops/kernel/store"
	"github.com/mark3labs/mcp-go/mcp"
)

type stubLauncher struct{}

func (stubLauncher) Launch(ctx context.Context, target connector.Target, progress connector.Progress) error {
	progress.Printf("agent started on node [%s]", target.NodeId)
	return nil
}
func (stubLauncher) AfterDisconnect(target connector.Target, progress connector.Progress) error {
	return nil
}
func (stubLauncher) IsLaunchSupported() bool { return true }
func (stubLauncher) Describe() string        { return "stub launcher" }

type stubConnector struct{}

func (stubConnector) Connect(address string, progress connector.Progress) (connector.Launcher, error) {
	return stubLauncher{}, nil
}

func init() {
	connector.Register("mcp-stub", func(settings connector.Settings) (connector.Connector, error) {
		return stubConnector{}, nil
	})
}

func testSetup(t *testing.T) (store.StatusStore, *node.Manager, *ec2.FakeClient) {
	t.Helper()

	memStore := store.NewMemoryStore()
	cfg := node.Config{
		Id:          "build-1",
		Credentials: ec2.Credentials{AccessKey: "AKIATEST", SecretKey: "secret", Region: "us-east-1"},
		Descriptor: ec2.Descriptor{
			ImageId:      "ami-0a1b2c3d",
			InstanceType: "t3.micro",
			KeypairName:  "build-keypair",
		},
		ConnectorType: "mcp-stub",
	}
	if err := memStore.SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	fake := &ec2.FakeClient{Address: "ec2-1-2-3-4.compute.amazonaws.com"}
	fake.SetStates(ec2.StateRunning)

	manager := node.NewManager()
	n := node.New(cfg).WithClientFactory(func(creds ec2.Credentials) (ec2.Client, error) {
		return fake, nil
	})
	if err := manager.Add(n); err != nil {
		t.Fatalf("manager.Add failed: %v", err)
	}

	return memStore, manager, fake
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected tool result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestNewNodeopsMCPServer(t *testing.T) {
	memStore, manager, _ := testSetup(t)
	server := NewNodeopsMCPServer(memStore, manager)

	if server == nil {
		t.Fatal("expected server to be created")
	}
	if server.store == nil {
		t.Error("expected store to be set")
	}
	if server.manager == nil {
		t.Error("expected manager to be set")
	}
}

func TestListNodesHandler(t *testing.T) {
	memStore, manager, _ := testSetup(t)
	server := NewNodeopsMCPServer(memStore, manager)

	result, err := server.listNodesHandler(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(toolText(t, result)), &ids); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if len(ids) != 1 || ids[0] != "build-1" {
		t.Errorf("expected [build-1], got %v", ids)
	}
}

func TestLaunchNodeHandler(t *testing.T) {
	memStore, manager, fake := testSetup(t)
	server := NewNodeopsMCPServer(memStore, manager)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]any{
				"node": "build-1",
			},
		},
	}

	result, err := server.launchNodeHandler(context.Background(), request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("launch failed: %s", toolText(t, result))
	}
	if fake.LaunchCalls != 1 {
		t.Errorf("expected 1 launch call, got %d", fake.LaunchCalls)
	}

	status, err := memStore.GetStatus("build-1")
	if err != nil {
		t.Fatalf("expected status to be recorded: %v", err)
	}
	if status.InstanceId != "i-000001" {
		t.Errorf("unexpected instance id: %s", status.InstanceId)
	}
}

func TestLaunchNodeHandler_Unregistered(t *testing.T) {
	memStore, manager, _ := testSetup(t)
	server := NewNodeopsMCPServer(memStore, manager)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]any{
				"node": "nonexistent",
			},
		},
	}

	result, err := server.launchNodeHandler(context.Background(), request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for unregistered node")
	}
}

func TestTerminateNodeHandler(t *testing.T) {
	memStore, manager, fake := testSetup(t)
	server := NewNodeopsMCPServer(memStore, manager)

	launchReq := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]any{"node": "build-1"},
		},
	}
	if result, err := server.launchNodeHandler(context.Background(), launchReq); err != nil || result.IsError {
		t.Fatalf("launch setup failed")
	}

	result, err := server.terminateNodeHandler(context.Background(), launchReq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("terminate failed: %s", toolText(t, result))
	}
	if fake.TerminateCalls != 1 {
		t.Errorf("expected 1 terminate call, got %d", fake.TerminateCalls)
	}
	if _, err := memStore.GetStatus("build-1"); err == nil {
		t.Error("expected status to be cleared after terminate")
	}
}

func TestTerminateNodeHandler_NoController(t *testing.T) {
	memStore, manager, _ := testSetup(t)
	server := NewNodeopsMCPServer(memStore, manager)

	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: map[string]any{"node": "build-1"},
		},
	}

	result, err := server.terminateNodeHandler(context.Background(), request)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result when node was never launched")
	}
}

func TestStatusHandler(t *testing.T) {
	memStore, manager, _ := testSetup(t)
	if err := memStore.SaveStatus(store.NodeStatus{
		NodeId:     "build-1",
		InstanceId: "i-000001",
		State:      "running",
		UpdatedAt:  time.Now(),
	}); err != nil {
		t.Fatalf("SaveStatus failed: %v", err)
	}

	server := NewNodeopsMCPServer(memStore, manager)

	contents, err := server.statusHandler(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 resource content, got %d", len(contents))
	}

	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected text resource contents, got %T", contents[0])
	}

	var response map[string]interface{}
	if err := json.Unmarshal([]byte(text.Text), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if int(response["count"].(float64)) != 1 {
		t.Errorf("expected count 1, got %v", response["count"])
	}
}
